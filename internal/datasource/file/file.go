// Package file implements a local filesystem-backed table source: the
// three input tables are CSV files in one directory.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"margins/internal/config"
	"margins/internal/datasource"
	csvparser "margins/internal/parser/csv"
	"margins/internal/schema"
)

func init() {
	datasource.Register("file", func(cfg config.Source) (datasource.TableSource, error) {
		if cfg.File.Dir == "" {
			return nil, fmt.Errorf("file source: dir is required")
		}
		return New(cfg.File), nil
	})
}

// Source reads sales/recipes/prices CSV files from a directory.
type Source struct {
	cfg config.SourceFile
}

// New returns a Source bound to the configured directory. File names
// default to sales.csv, recipes.csv, and prices.csv.
func New(cfg config.SourceFile) *Source {
	if cfg.Sales == "" {
		cfg.Sales = "sales.csv"
	}
	if cfg.Recipes == "" {
		cfg.Recipes = "recipes.csv"
	}
	if cfg.Prices == "" {
		cfg.Prices = "prices.csv"
	}
	return &Source{cfg: cfg}
}

// Fetch reads and parses the three files concurrently. Any missing or
// unreadable file fails the whole fetch; a partially loaded bundle is
// never returned.
func (s *Source) Fetch(ctx context.Context) (*datasource.Bundle, error) {
	var bundle datasource.Bundle

	g, ctx := errgroup.WithContext(ctx)
	load := func(name, filename string, dst *datasource.Table) func() error {
		return func() error {
			t, err := s.readTable(ctx, name, filepath.Join(s.cfg.Dir, filename))
			if err != nil {
				return err
			}
			*dst = t
			return nil
		}
	}
	g.Go(load(schema.TableSales, s.cfg.Sales, &bundle.Sales))
	g.Go(load(schema.TableRecipes, s.cfg.Recipes, &bundle.Recipes))
	g.Go(load(schema.TablePrices, s.cfg.Prices, &bundle.Prices))
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (s *Source) readTable(ctx context.Context, name, path string) (datasource.Table, error) {
	select {
	case <-ctx.Done():
		return datasource.Table{}, ctx.Err()
	default:
	}

	f, err := os.Open(path)
	if err != nil {
		return datasource.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	opt := csvparser.Options{TrimSpace: true}
	if s.cfg.Delimiter != "" {
		opt.Comma = []rune(s.cfg.Delimiter)[0]
	}
	rows, headers, skipped, err := csvparser.NewParser(opt).Parse(f)
	if err != nil {
		return datasource.Table{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return datasource.Table{Name: name, Headers: headers, Rows: rows, Skipped: skipped}, nil
}
