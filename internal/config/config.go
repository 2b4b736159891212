// Package config defines the canonical, JSON-serializable configuration
// model for the margins pipeline. It is intentionally small and explicit
// so that a pipeline can be loaded from disk and passed through the
// program without additional glue code.
//
// The column mappings exist because physical column naming varies across
// deployments (accented vs unaccented headers, reordered sheets). The
// mapping from logical field name to physical column is resolved once at
// the normalization boundary and never hard-coded inside computation
// logic. Defaults mirror the Spanish spreadsheet layout the pipeline was
// built for.
//
// Example (trimmed):
//
//	{
//	  "job":    "margins",
//	  "source": { "kind": "file", "file": { "dir": "data" } },
//	  "tables": {
//	    "sales": { "columns": { "product_code": "CODIGO DE PRODUCTO" } }
//	  },
//	  "options": { "group_by": "none", "price_strategy": "latest_by_date" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"margins/internal/schema"
)

// Pipeline is the top-level object decoded from a config file.
type Pipeline struct {
	// Job names the run for logs and metrics grouping.
	Job string `json:"job"`

	// Source describes where the three input tables come from.
	Source Source `json:"source"`

	// Tables carries the per-table logical->physical column mappings.
	Tables Tables `json:"tables"`

	// Options tune normalization, price resolution, and projection.
	Options Options `json:"options"`
}

// Source identifies the data source for all three tables.
type Source struct {
	// Kind selects the source implementation: "file", "http", "sqlite",
	// "mysql", "postgres", or "sheets".
	Kind string `json:"kind"`

	File   SourceFile   `json:"file"`
	HTTP   SourceHTTP   `json:"http"`
	DB     SourceDB     `json:"db"`
	Sheets SourceSheets `json:"sheets"`
}

// SourceFile reads the tables from CSV files in a directory.
type SourceFile struct {
	Dir string `json:"dir"`

	// File names within Dir; defaults are sales.csv, recipes.csv,
	// prices.csv.
	Sales   string `json:"sales"`
	Recipes string `json:"recipes"`
	Prices  string `json:"prices"`

	// Delimiter is a single-character field separator; "," when empty.
	Delimiter string `json:"delimiter"`
}

// SourceHTTP fetches each table as CSV over HTTP.
type SourceHTTP struct {
	SalesURL   string `json:"sales_url"`
	RecipesURL string `json:"recipes_url"`
	PricesURL  string `json:"prices_url"`
	Delimiter  string `json:"delimiter"`

	// TimeoutSeconds and MaxRetries tune the retrying client; zero
	// values use the client defaults.
	TimeoutSeconds int `json:"timeout_seconds"`
	MaxRetries     int `json:"max_retries"`
}

// SourceDB reads each table with one query. The driver is chosen by
// Source.Kind ("sqlite", "mysql", or "postgres").
type SourceDB struct {
	DSN          string `json:"dsn"`
	SalesQuery   string `json:"sales_query"`
	RecipesQuery string `json:"recipes_query"`
	PricesQuery  string `json:"prices_query"`
}

// SourceSheets reads the tables from one Google Sheets spreadsheet using
// a service-account credential file, mirroring the original deployment.
type SourceSheets struct {
	CredentialsFile string `json:"credentials_file"`
	SpreadsheetID   string `json:"spreadsheet_id"`

	// Worksheet names; defaults are the original Spanish sheet names.
	Sales   string `json:"sales"`
	Recipes string `json:"recipes"`
	Prices  string `json:"prices"`
}

// Tables holds the column mapping per input table.
type Tables struct {
	Sales   TableSpec `json:"sales"`
	Recipes TableSpec `json:"recipes"`
	Prices  TableSpec `json:"prices"`
}

// TableSpec maps logical field names (schema package) to physical column
// headers. Missing entries fall back to the defaults; a header equal to
// the logical name itself always works.
type TableSpec struct {
	Columns map[string]string `json:"columns"`
}

// Options tune the computation. Zero values select the documented
// defaults.
type Options struct {
	// StripDiacritics folds accents in headers and key values; nil means
	// true.
	StripDiacritics *bool `json:"strip_diacritics"`

	// PriceStrategy is "latest_by_date" (default) or "exact_period".
	PriceStrategy string `json:"price_strategy"`

	// PeriodScoped keys costs by (product, period) instead of product.
	PeriodScoped bool `json:"period_scoped"`

	// GroupBy is "none" (default), "product", "product_period", or
	// "invoice".
	GroupBy string `json:"group_by"`

	// DateLayouts override the layouts tried on date columns.
	DateLayouts []string `json:"date_layouts"`
}

// Diacritics reports whether diacritic stripping is enabled (default true).
func (o Options) Diacritics() bool {
	return o.StripDiacritics == nil || *o.StripDiacritics
}

// Default returns the configuration matching the original spreadsheet
// deployment: Spanish column headers and worksheet names.
func Default() Pipeline {
	return Pipeline{
		Job: "margins",
		Source: Source{
			Kind: "file",
			File: SourceFile{Dir: "data"},
			Sheets: SourceSheets{
				Sales:   "LIBRO DE VENTAS",
				Recipes: "RECETAS DE PRODUCTOS",
				Prices:  "PRECIO DE INSUMOS",
			},
		},
		Tables: Tables{
			Sales: TableSpec{Columns: map[string]string{
				schema.FieldProductCode: "CODIGO DE PRODUCTO",
				schema.FieldProductName: "NOMBRE DE PRODUCTO",
				schema.FieldClient:      "CLIENTE",
				schema.FieldInvoice:     "NÚMERO",
				schema.FieldPeriod:      "MES",
				schema.FieldQuantity:    "CANTIDAD PRODUCTO",
				schema.FieldUnitPrice:   "PRECIO UNITARIO",
				schema.FieldNet:         "NETO",
			}},
			Recipes: TableSpec{Columns: map[string]string{
				schema.FieldProductCode: "CODIGO DE PRODUCTO",
				schema.FieldInputCode:   "CODIGO INSUMO",
				schema.FieldQuantity:    "CANTIDAD",
				schema.FieldPeriod:      "MES",
			}},
			Prices: TableSpec{Columns: map[string]string{
				schema.FieldInputCode: "CODIGO INSUMO",
				schema.FieldPrice:     "PRECIO",
				schema.FieldEffective: "FECHA",
				schema.FieldPeriod:    "MES",
			}},
		},
		Options: Options{
			PriceStrategy: "latest_by_date",
			GroupBy:       "none",
		},
	}
}

// Load decodes a pipeline file and fills unset column mappings and sheet
// names from Default.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	p := Default()
	dec := json.NewDecoder(f)
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return withDefaults(p), nil
}

// withDefaults backfills mappings a partial config left empty.
func withDefaults(p Pipeline) Pipeline {
	def := Default()
	if p.Job == "" {
		p.Job = def.Job
	}
	p.Tables.Sales.Columns = mergeColumns(def.Tables.Sales.Columns, p.Tables.Sales.Columns)
	p.Tables.Recipes.Columns = mergeColumns(def.Tables.Recipes.Columns, p.Tables.Recipes.Columns)
	p.Tables.Prices.Columns = mergeColumns(def.Tables.Prices.Columns, p.Tables.Prices.Columns)
	if p.Source.Sheets.Sales == "" {
		p.Source.Sheets.Sales = def.Source.Sheets.Sales
	}
	if p.Source.Sheets.Recipes == "" {
		p.Source.Sheets.Recipes = def.Source.Sheets.Recipes
	}
	if p.Source.Sheets.Prices == "" {
		p.Source.Sheets.Prices = def.Source.Sheets.Prices
	}
	if p.Options.PriceStrategy == "" {
		p.Options.PriceStrategy = def.Options.PriceStrategy
	}
	if p.Options.GroupBy == "" {
		p.Options.GroupBy = def.Options.GroupBy
	}
	return p
}

func mergeColumns(def, over map[string]string) map[string]string {
	out := make(map[string]string, len(def)+len(over))
	for k, v := range def {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// ColumnsFor returns the configured mapping for a schema table name.
func (t Tables) ColumnsFor(table string) map[string]string {
	switch table {
	case schema.TableSales:
		return t.Sales.Columns
	case schema.TableRecipes:
		return t.Recipes.Columns
	case schema.TablePrices:
		return t.Prices.Columns
	}
	return nil
}
