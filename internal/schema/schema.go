// Package schema names the logical fields of the three input tables (sales,
// recipes, input prices) and resolves them against the physical column
// headers of a concrete deployment.
//
// Column naming varies wildly across spreadsheets: accented vs unaccented
// headers, stray whitespace, different casing. All matching therefore runs
// on a canonical form (Canon) and the logical->physical mapping is plain
// configuration, never hard-coded in computation code. A table that cannot
// satisfy its contract is a configuration error and aborts the run; the
// pipeline has no sensible fallback for a missing key column.
package schema

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Table names used in configuration and error messages.
const (
	TableSales   = "sales"
	TableRecipes = "recipes"
	TablePrices  = "prices"
)

// Logical field names. Downstream stages only ever see these keys.
const (
	FieldProductCode = "product_code"
	FieldProductName = "product_name"
	FieldClient      = "client"
	FieldInvoice     = "invoice"
	FieldPeriod      = "period"
	FieldQuantity    = "quantity"
	FieldUnitPrice   = "unit_price"
	FieldNet         = "net"
	FieldInputCode   = "input_code"
	FieldPrice       = "price"
	FieldEffective   = "effective_date"
)

// Kind classifies a field for the coercion stage.
type Kind string

const (
	KindKey    Kind = "key"    // join key: canonicalized value
	KindText   Kind = "text"   // descriptive text, kept as-is
	KindNumber Kind = "number" // locale-tolerant numeric
	KindDate   Kind = "date"   // parsed into time.Time or dropped
	KindPeriod Kind = "period" // month bucket label, canonicalized
)

// Field is one logical column of a table contract.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Contract lists the logical fields of one input table. AnyOf groups are
// satisfied when at least one member resolves; they express "unit price or
// net amount" style requirements.
type Contract struct {
	Table  string
	Fields []Field
	AnyOf  [][]string
}

// Sales is the contract for the sales transaction table.
func Sales() Contract {
	return Contract{
		Table: TableSales,
		Fields: []Field{
			{Name: FieldProductCode, Kind: KindKey, Required: true},
			{Name: FieldProductName, Kind: KindText},
			{Name: FieldClient, Kind: KindText},
			{Name: FieldInvoice, Kind: KindText},
			{Name: FieldPeriod, Kind: KindPeriod},
			{Name: FieldQuantity, Kind: KindNumber, Required: true},
			{Name: FieldUnitPrice, Kind: KindNumber},
			{Name: FieldNet, Kind: KindNumber},
		},
		AnyOf: [][]string{{FieldUnitPrice, FieldNet}},
	}
}

// Recipes is the contract for the bill-of-materials table.
func Recipes() Contract {
	return Contract{
		Table: TableRecipes,
		Fields: []Field{
			{Name: FieldProductCode, Kind: KindKey, Required: true},
			{Name: FieldInputCode, Kind: KindKey, Required: true},
			{Name: FieldQuantity, Kind: KindNumber, Required: true},
			{Name: FieldPeriod, Kind: KindPeriod},
		},
	}
}

// Prices is the contract for the input price list.
func Prices() Contract {
	return Contract{
		Table: TablePrices,
		Fields: []Field{
			{Name: FieldInputCode, Kind: KindKey, Required: true},
			{Name: FieldPrice, Kind: KindNumber, Required: true},
			{Name: FieldEffective, Kind: KindDate},
			{Name: FieldPeriod, Kind: KindPeriod},
		},
	}
}

// Contracts returns the three table contracts keyed by table name.
func Contracts() map[string]Contract {
	return map[string]Contract{
		TableSales:   Sales(),
		TableRecipes: Recipes(),
		TablePrices:  Prices(),
	}
}

// deaccent decomposes, removes nonspacing marks, and recomposes, so that
// "NÚMERO" and "NUMERO" canonicalize identically.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Canon returns the canonical form of a header or key value: trimmed,
// inner whitespace collapsed to single spaces, upper-cased, and with
// diacritics stripped when strip is true.
func Canon(s string, strip bool) string {
	if strip {
		if folded, _, err := transform.String(deaccent, s); err == nil {
			s = folded
		}
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.Join(fields, " "))
}

// Resolve matches a contract against the physical headers of a table and
// returns a rename map from canonical physical header to logical field
// name. The columns argument maps logical field -> physical header as
// configured; when a logical field has no configured column, a header
// spelled like the logical name itself is accepted. Missing required
// fields (and unsatisfied AnyOf groups) return an error naming the table
// and fields, which callers must treat as fatal.
func Resolve(c Contract, columns map[string]string, headers []string, strip bool) (map[string]string, error) {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[Canon(h, strip)] = struct{}{}
	}

	rename := make(map[string]string, len(c.Fields))
	resolved := make(map[string]bool, len(c.Fields))
	var missing []string

	for _, f := range c.Fields {
		candidates := make([]string, 0, 2)
		if phys, ok := columns[f.Name]; ok && phys != "" {
			candidates = append(candidates, Canon(phys, strip))
		}
		candidates = append(candidates, Canon(f.Name, strip))

		for _, cand := range candidates {
			if _, ok := present[cand]; ok {
				rename[cand] = f.Name
				resolved[f.Name] = true
				break
			}
		}
		if f.Required && !resolved[f.Name] {
			missing = append(missing, f.Name)
		}
	}

	for _, group := range c.AnyOf {
		ok := false
		for _, name := range group {
			if resolved[name] {
				ok = true
				break
			}
		}
		if !ok {
			missing = append(missing, strings.Join(group, "|"))
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("table %s: missing required column(s): %s", c.Table, strings.Join(missing, ", "))
	}
	return rename, nil
}

// FieldByName returns the contract field with the given logical name.
func (c Contract) FieldByName(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
