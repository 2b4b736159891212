// Package pipeline wires the stages of the margin computation together:
// fetch, normalize, coerce, decode, price resolution, cost aggregation,
// and the margin join. It owns stage ordering, timing, and metrics;
// the stages themselves stay pure and independently testable.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"margins/internal/config"
	"margins/internal/costing"
	"margins/internal/datasource"
	"margins/internal/domain"
	"margins/internal/fingerprint"
	"margins/internal/margin"
	"margins/internal/metrics"
	"margins/internal/pricing"
	"margins/internal/schema"
	"margins/internal/transform"
	"margins/pkg/records"
)

// Stats summarizes one run for logs and metrics.
type Stats struct {
	SalesRead   int
	RecipesRead int
	PricesRead  int
	RowsSkipped int

	// Uncosted counts output rows with no resolvable product cost.
	Uncosted int

	Elapsed time.Duration
}

// Result is the output of one run: the full margin table at line-item
// granularity, in sales input order. Filtering and grouping are applied
// afterwards by the report package.
type Result struct {
	Records []domain.MarginRecord

	// Fingerprint is a stable hash of Records. Identical inputs and
	// options always produce the same fingerprint.
	Fingerprint uint64

	Stats Stats
}

// Pipeline runs the margin computation for one configuration.
type Pipeline struct {
	cfg    config.Pipeline
	source datasource.TableSource
}

// New binds a configuration to a table source. The source is typically
// built via datasource.New from cfg.Source, but tests inject stubs.
func New(cfg config.Pipeline, source datasource.TableSource) *Pipeline {
	return &Pipeline{cfg: cfg, source: source}
}

// Run executes the pipeline once. Errors are either source failures or
// schema resolution failures; dirty row-level data never fails a run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	job := p.cfg.Job

	var bundle *datasource.Bundle
	err := timed(job, "fetch", func() error {
		var err error
		bundle, err = p.source.Fetch(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	stats := Stats{
		SalesRead:   len(bundle.Sales.Rows),
		RecipesRead: len(bundle.Recipes.Rows),
		PricesRead:  len(bundle.Prices.Rows),
		RowsSkipped: bundle.Sales.Skipped + bundle.Recipes.Skipped + bundle.Prices.Skipped,
	}
	metrics.RecordRows(job, "sales_read", int64(stats.SalesRead))
	metrics.RecordRows(job, "recipes_read", int64(stats.RecipesRead))
	metrics.RecordRows(job, "prices_read", int64(stats.PricesRead))
	metrics.RecordRows(job, "rows_skipped", int64(stats.RowsSkipped))

	var salesRecs, recipeRecs, priceRecs []records.Record
	err = timed(job, "transform", func() error {
		var err error
		if salesRecs, err = p.normalizeTable(bundle.Sales, schema.Sales()); err != nil {
			return err
		}
		if recipeRecs, err = p.normalizeTable(bundle.Recipes, schema.Recipes()); err != nil {
			return err
		}
		priceRecs, err = p.normalizeTable(bundle.Prices, schema.Prices())
		return err
	})
	if err != nil {
		return nil, err
	}

	sales := domain.DecodeSales(salesRecs)

	// Price history indexing and recipe decoding are independent.
	var (
		resolver *pricing.Resolver
		lines    []domain.RecipeLine
	)
	err = timed(job, "resolve", func() error {
		var g errgroup.Group
		g.Go(func() error {
			resolver = pricing.NewResolver(domain.DecodePrices(priceRecs), pricing.Strategy(p.cfg.Options.PriceStrategy))
			return nil
		})
		g.Go(func() error {
			lines = domain.DecodeRecipes(recipeRecs)
			return nil
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	var costs map[domain.CostKey]float64
	_ = timed(job, "cost", func() error {
		agg := costing.Aggregator{PeriodScoped: p.cfg.Options.PeriodScoped}
		costs = agg.Aggregate(lines, salePeriods(sales), resolver.Resolve)
		return nil
	})

	var rows []domain.MarginRecord
	_ = timed(job, "margin", func() error {
		calc := margin.Calculator{PeriodScoped: p.cfg.Options.PeriodScoped}
		rows = calc.Compute(sales, costs)
		return nil
	})

	for _, m := range rows {
		if !m.HasCosting {
			stats.Uncosted++
		}
	}
	metrics.RecordRows(job, "uncosted", int64(stats.Uncosted))

	stats.Elapsed = time.Since(start)
	res := &Result{
		Records:     rows,
		Fingerprint: fingerprint.Table(rows),
		Stats:       stats,
	}
	log.Printf("pipeline %s: %d sales, %d recipes, %d prices, %d skipped, %d uncosted in %s",
		job, stats.SalesRead, stats.RecipesRead, stats.PricesRead, stats.RowsSkipped, stats.Uncosted, stats.Elapsed)
	return res, nil
}

// normalizeTable resolves the table's contract against the fetched
// headers and runs the normalize+coerce chain. A contract that cannot be
// satisfied is a configuration error and fails the run.
func (p *Pipeline) normalizeTable(t datasource.Table, c schema.Contract) ([]records.Record, error) {
	strip := p.cfg.Options.Diacritics()
	rename, err := schema.Resolve(c, p.cfg.Tables.ColumnsFor(c.Table), t.Headers, strip)
	if err != nil {
		return nil, err
	}

	var keys, numbers, dates []string
	for _, f := range c.Fields {
		switch f.Kind {
		case schema.KindKey, schema.KindPeriod:
			keys = append(keys, f.Name)
		case schema.KindNumber:
			numbers = append(numbers, f.Name)
		case schema.KindDate:
			dates = append(dates, f.Name)
		}
	}

	chain := transform.Chain{
		transform.Normalize{Rename: rename, Keys: keys, StripDiacritics: strip},
		transform.Coerce{Numbers: numbers, Dates: dates, Layouts: p.cfg.Options.DateLayouts},
	}
	return chain.Apply(t.Rows), nil
}

// salePeriods returns the distinct sale periods in order of appearance,
// the universe that period-scoped costs are computed over.
func salePeriods(sales []domain.SaleRecord) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, s := range sales {
		if _, dup := seen[s.Period]; dup {
			continue
		}
		seen[s.Period] = struct{}{}
		out = append(out, s.Period)
	}
	return out
}

func timed(job, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStage(job, stage, err, time.Since(start))
	return err
}
