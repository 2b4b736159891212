// Package postgres implements a Postgres-backed table source using pgx
// v5. Each input table is produced by one configured query against a
// pooled connection.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"margins/internal/config"
	"margins/internal/datasource"
	"margins/internal/schema"
	"margins/pkg/records"
)

func init() {
	datasource.Register("postgres", func(cfg config.Source) (datasource.TableSource, error) {
		return New(cfg.DB)
	})
}

// Source reads the three tables from Postgres.
type Source struct {
	cfg config.SourceDB
}

// New validates the configuration and returns a Source.
func New(cfg config.SourceDB) (*Source, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres source: DSN must not be empty")
	}
	if cfg.SalesQuery == "" || cfg.RecipesQuery == "" || cfg.PricesQuery == "" {
		return nil, fmt.Errorf("postgres source: sales_query, recipes_query, and prices_query are all required")
	}
	return &Source{cfg: cfg}, nil
}

// Fetch opens a pool, runs the three queries concurrently, and closes
// the pool before returning.
func (s *Source) Fetch(ctx context.Context) (*datasource.Bundle, error) {
	pool, err := pgxpool.New(ctx, s.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	defer pool.Close()

	var bundle datasource.Bundle
	g, ctx := errgroup.WithContext(ctx)
	load := func(name, query string, dst *datasource.Table) func() error {
		return func() error {
			t, err := queryTable(ctx, pool, name, query)
			if err != nil {
				return err
			}
			*dst = t
			return nil
		}
	}
	g.Go(load(schema.TableSales, s.cfg.SalesQuery, &bundle.Sales))
	g.Go(load(schema.TableRecipes, s.cfg.RecipesQuery, &bundle.Recipes))
	g.Go(load(schema.TablePrices, s.cfg.PricesQuery, &bundle.Prices))
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &bundle, nil
}

func queryTable(ctx context.Context, pool *pgxpool.Pool, name, query string) (datasource.Table, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return datasource.Table{}, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.Name
	}

	t := datasource.Table{Name: name, Headers: headers}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return datasource.Table{}, fmt.Errorf("scan %s: %w", name, err)
		}
		rec := make(records.Record, len(headers))
		for i, c := range headers {
			switch v := vals[i].(type) {
			case []byte:
				rec[c] = string(v)
			default:
				rec[c] = v
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return datasource.Table{}, fmt.Errorf("read %s: %w", name, err)
	}
	return t, nil
}
