// Package datasource abstracts where the three input tables come from.
// The pipeline depends only on TableSource; concrete sources (CSV files,
// HTTP, SQL databases, Google Sheets) live in subpackages and register
// themselves with the factory here, keeping backend-specific wiring out
// of the core.
package datasource

import (
	"context"
	"fmt"
	"sort"

	"margins/internal/config"
	"margins/pkg/records"
)

// Table is one fetched relation: raw rows keyed by the source's own
// column headers, plus the header list in column order.
type Table struct {
	Name    string
	Headers []string
	Rows    []records.Record

	// Skipped counts malformed rows the source dropped while reading.
	Skipped int
}

// Bundle groups the three inputs of one pipeline run.
type Bundle struct {
	Sales   Table
	Recipes Table
	Prices  Table
}

// TableSource fetches all three tables. Implementations must be safe to
// call repeatedly; the pipeline itself never caches, so callers that
// want to avoid redundant fetches wrap the source (see Cached).
type TableSource interface {
	Fetch(ctx context.Context) (*Bundle, error)
}

// Builder constructs a TableSource from configuration.
type Builder func(config.Source) (TableSource, error)

var builders = map[string]Builder{}

// Register makes a source kind available to New. It is called from the
// init functions of concrete source packages (see datasource/all).
func Register(kind string, b Builder) {
	builders[kind] = b
}

// New builds the source selected by cfg.Kind. Unknown kinds list the
// registered ones, which makes a missing blank import obvious.
func New(cfg config.Source) (TableSource, error) {
	b, ok := builders[cfg.Kind]
	if !ok {
		kinds := make([]string, 0, len(builders))
		for k := range builders {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		return nil, fmt.Errorf("datasource: unknown kind %q (registered: %v)", cfg.Kind, kinds)
	}
	return b(cfg)
}

// Cached wraps a source and memoizes the first successful fetch, so
// repeated pipeline invocations with different filters reuse one load.
// It is not safe for concurrent use; the CLI runs single-threaded.
type Cached struct {
	Source TableSource
	bundle *Bundle
}

func (c *Cached) Fetch(ctx context.Context) (*Bundle, error) {
	if c.bundle != nil {
		return c.bundle, nil
	}
	b, err := c.Source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.bundle = b
	return b, nil
}
