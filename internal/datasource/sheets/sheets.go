// Package sheets implements a Google Sheets table source: the three
// input tables are worksheets of one spreadsheet, read through the
// Sheets API with a service-account credential file. This mirrors the
// original deployment, where the sales book, recipes, and input prices
// live in a shared Google Sheets document.
package sheets

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"margins/internal/config"
	"margins/internal/datasource"
	"margins/internal/schema"
	"margins/pkg/records"
)

func init() {
	datasource.Register("sheets", func(cfg config.Source) (datasource.TableSource, error) {
		return New(cfg.Sheets)
	})
}

// Source reads the three tables from one spreadsheet.
type Source struct {
	cfg config.SourceSheets
}

// New validates the configuration and returns a Source. The API client
// is built per Fetch so credentials are only touched when data is
// actually needed.
func New(cfg config.SourceSheets) (*Source, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets source: spreadsheet ID is required")
	}
	if cfg.Sales == "" || cfg.Recipes == "" || cfg.Prices == "" {
		return nil, fmt.Errorf("sheets source: sales, recipes, and prices worksheet names are all required")
	}
	return &Source{cfg: cfg}, nil
}

// Fetch reads the three worksheets concurrently. Without a credentials
// file the client falls back to application default credentials.
func (s *Source) Fetch(ctx context.Context) (*datasource.Bundle, error) {
	opts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope)}
	if s.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.cfg.CredentialsFile))
	}
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}

	var bundle datasource.Bundle
	g, ctx := errgroup.WithContext(ctx)
	load := func(name, worksheet string, dst *datasource.Table) func() error {
		return func() error {
			t, err := s.readTable(ctx, svc, name, worksheet)
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

// readTable pulls one worksheet. The first row is the header; shorter
// data rows are padded with nil (the Sheets API trims trailing empty
// cells), longer ones are soft-failed like malformed CSV rows.
func (s *Source) readTable(ctx context.Context, svc *sheetsapi.Service, name, worksheet string) (datasource.Table, error) {
	resp, err := svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, worksheet).Context(ctx).Do()
	if err != nil {
		return datasource.Table{}, fmt.Errorf("sheets: read %s (%s): %w", name, worksheet, err)
	}
	if len(resp.Values) == 0 {
		return datasource.Table{}, fmt.Errorf("sheets: worksheet %s is empty", worksheet)
	}

	headers := make([]string, len(resp.Values[0]))
	for i, c := range resp.Values[0] {
		headers[i] = fmt.Sprint(c)
	}

	t := datasource.Table{Name: name, Headers: headers}
	for _, row := range resp.Values[1:] {
		if len(row) > len(headers) {
			t.Skipped++
			continue
		}
		rec := make(records.Record, len(headers))
		for i, h := range headers {
			if i < len(row) && fmt.Sprint(row[i]) != "" {
				rec[h] = row[i]
			} else {
				rec[h] = nil
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}
