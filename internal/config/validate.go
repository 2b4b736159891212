package config

import (
	"fmt"

	"margins/internal/pricing"
	"margins/internal/report"
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding, with a JSON-ish path to the offending
// field.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

// ValidatePipeline checks a pipeline config for structural problems.
// Errors indicate a config the pipeline cannot run with (fatal);
// warnings flag suspicious but workable settings. Schema-level problems
// (a table missing a required column) surface later, at fetch time, once
// actual headers are known.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue
	errf := func(path, format string, args ...any) {
		issues = append(issues, Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)})
	}
	warnf := func(path, format string, args ...any) {
		issues = append(issues, Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	switch p.Source.Kind {
	case "file":
		if p.Source.File.Dir == "" {
			errf("source.file.dir", "directory is required for the file source")
		}
	case "http":
		if p.Source.HTTP.SalesURL == "" || p.Source.HTTP.RecipesURL == "" || p.Source.HTTP.PricesURL == "" {
			errf("source.http", "sales_url, recipes_url, and prices_url are all required")
		}
	case "sqlite", "mysql", "postgres":
		if p.Source.DB.DSN == "" {
			errf("source.db.dsn", "DSN is required for the %s source", p.Source.Kind)
		}
		if p.Source.DB.SalesQuery == "" || p.Source.DB.RecipesQuery == "" || p.Source.DB.PricesQuery == "" {
			errf("source.db", "sales_query, recipes_query, and prices_query are all required")
		}
	case "sheets":
		if p.Source.Sheets.SpreadsheetID == "" {
			errf("source.sheets.spreadsheet_id", "spreadsheet ID is required")
		}
		if p.Source.Sheets.CredentialsFile == "" {
			warnf("source.sheets.credentials_file", "no credentials file; falling back to application default credentials")
		}
	case "":
		errf("source.kind", "source kind is required")
	default:
		errf("source.kind", "unknown source kind %q", p.Source.Kind)
	}

	if !contains(pricing.Strategies(), p.Options.PriceStrategy) {
		errf("options.price_strategy", "unknown strategy %q (want one of %v)", p.Options.PriceStrategy, pricing.Strategies())
	}
	if !contains(report.GroupBys(), p.Options.GroupBy) {
		errf("options.group_by", "unknown grouping %q (want one of %v)", p.Options.GroupBy, report.GroupBys())
	}
	if p.Options.PeriodScoped && p.Options.PriceStrategy == string(pricing.ExactPeriod) {
		// fine, but periods must actually be labeled in the price table
		warnf("options", "exact_period with period-scoped costs requires the price table to carry period labels")
	}

	return issues
}

// HasError reports whether any issue is fatal.
func HasError(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
