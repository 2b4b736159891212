// Package csv parses CSV input into records keyed by the file's own
// headers. It tolerates real-world spreadsheet exports: UTF-8 BOMs,
// stray whitespace, and the odd malformed row, which is skipped and
// counted rather than aborting the batch.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"margins/pkg/records"
)

// Options configures the CSV parser behavior. All fields are optional;
// sensible defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool
}

// Parser parses CSV input according to Options. It is safe to reuse
// across inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// skippedLogLimit caps per-row skip logging so one corrupt file cannot
// flood the log.
const skippedLogLimit = 400

// Parse consumes CSV records from r. The first row is the header; its
// cells become the record keys verbatim (canonicalization is the
// normalizer's job). Rows whose width differs from the header are
// soft-failed: skipped, counted, and logged up to a cap. Empty cells
// become nil values.
func (p *Parser) Parse(r io.Reader) (rows []records.Record, headers []string, skipped int, err error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	h, err := cr.Read()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	headers = make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		headers[i] = c
	}

	for line := 1; ; line++ {
		row, rerr := cr.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if skipped < skippedLogLimit {
				log.Printf("Skipping row %d: %v", line, rerr)
			}
			skipped++
			continue
		}
		if len(row) != len(headers) {
			if skipped < skippedLogLimit {
				log.Printf("Skipping row %d: incorrect number of fields (expected %d, got %d)", line, len(headers), len(row))
			}
			skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[headers[i]] = emptyToNil(val)
		}
		rows = append(rows, rec)
	}

	return rows, headers, skipped, nil
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
