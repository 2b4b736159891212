// Package dbsource implements a database/sql-backed table source: each
// of the three input tables is produced by one configured query. The
// SQLite and MySQL drivers are registered here; Postgres goes through
// pgx in its own package.
package dbsource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // "mysql" driver
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite" // "sqlite" driver

	"margins/internal/config"
	"margins/internal/datasource"
	"margins/internal/schema"
	"margins/pkg/records"
)

func init() {
	for _, kind := range []string{"sqlite", "mysql"} {
		kind := kind
		datasource.Register(kind, func(cfg config.Source) (datasource.TableSource, error) {
			return New(kind, cfg.DB)
		})
	}
}

// Source reads the three tables from one SQL database.
type Source struct {
	driver string
	cfg    config.SourceDB
}

// New validates the configuration and returns a Source. The connection
// is opened lazily per Fetch so the source itself carries no state
// between runs.
func New(driver string, cfg config.SourceDB) (*Source, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%s source: DSN must not be empty", driver)
	}
	if cfg.SalesQuery == "" || cfg.RecipesQuery == "" || cfg.PricesQuery == "" {
		return nil, fmt.Errorf("%s source: sales_query, recipes_query, and prices_query are all required", driver)
	}
	return &Source{driver: driver, cfg: cfg}, nil
}

// Fetch opens the database, runs the three queries concurrently, and
// closes the connection before returning.
func (s *Source) Fetch(ctx context.Context) (*datasource.Bundle, error) {
	db, err := sql.Open(s.driver, s.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", s.driver, err)
	}
	defer db.Close()

	// Fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("%s: ping: %w", s.driver, err)
	}

	var bundle datasource.Bundle
	g, ctx := errgroup.WithContext(ctx)
	load := func(name, query string, dst *datasource.Table) func() error {
		return func() error {
			t, err := queryTable(ctx, db, name, query)
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

// queryTable materializes one query result as a Table. Column names are
// taken from the result set; []byte values (how both drivers return
// text) are converted to string so the transform stage sees uniform
// values.
func queryTable(ctx context.Context, db *sql.DB, name, query string) (datasource.Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return datasource.Table{}, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return datasource.Table{}, fmt.Errorf("columns %s: %w", name, err)
	}

	t := datasource.Table{Name: name, Headers: cols}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return datasource.Table{}, fmt.Errorf("scan %s: %w", name, err)
		}
		rec := make(records.Record, len(cols))
		for i, c := range cols {
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
