package httpds

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"margins/internal/config"
	"margins/internal/datasource"
	csvparser "margins/internal/parser/csv"
	"margins/internal/schema"
)

func init() {
	datasource.Register("http", func(cfg config.Source) (datasource.TableSource, error) {
		h := cfg.HTTP
		if h.SalesURL == "" || h.RecipesURL == "" || h.PricesURL == "" {
			return nil, fmt.Errorf("http source: sales_url, recipes_url, and prices_url are all required")
		}
		return NewSource(h, nil), nil
	})
}

// Source fetches the three tables as CSV over HTTP.
type Source struct {
	cfg    config.SourceHTTP
	client *Client
}

// NewSource builds a Source. A nil client gets a default retrying client
// configured from cfg.
func NewSource(cfg config.SourceHTTP, client *Client) *Source {
	if client == nil {
		cc := ClientConfig{MaxRetries: cfg.MaxRetries}
		if cfg.TimeoutSeconds > 0 {
			cc.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		client = NewClient(cc)
	}
	return &Source{cfg: cfg, client: client}
}

// Fetch downloads and parses the three tables concurrently.
func (s *Source) Fetch(ctx context.Context) (*datasource.Bundle, error) {
	var bundle datasource.Bundle

	g, ctx := errgroup.WithContext(ctx)
	load := func(name, url string, dst *datasource.Table) func() error {
		return func() error {
			t, err := s.readTable(ctx, name, url)
			if err != nil {
				return err
			}
			*dst = t
			return nil
		}
	}
	g.Go(load(schema.TableSales, s.cfg.SalesURL, &bundle.Sales))
	g.Go(load(schema.TableRecipes, s.cfg.RecipesURL, &bundle.Recipes))
	g.Go(load(schema.TablePrices, s.cfg.PricesURL, &bundle.Prices))
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (s *Source) readTable(ctx context.Context, name, url string) (datasource.Table, error) {
	resp, err := s.client.Get(ctx, url, nil)
	if err != nil {
		return datasource.Table{}, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return datasource.Table{}, fmt.Errorf("fetch %s: %s", name, resp.Status)
	}

	opt := csvparser.Options{TrimSpace: true}
	if s.cfg.Delimiter != "" {
		opt.Comma = []rune(s.cfg.Delimiter)[0]
	}
	rows, headers, skipped, err := csvparser.NewParser(opt).Parse(resp.Body)
	if err != nil {
		return datasource.Table{}, fmt.Errorf("parse %s: %w", name, err)
	}
	return datasource.Table{Name: name, Headers: headers, Rows: rows, Skipped: skipped}, nil
}
