// Package report projects the computed margin table for presentation:
// exact-match filtering, optional grouping, stable ordering, and the
// distinct value lists the filter UI needs. This is the boundary to the
// display layer; everything past here is rendering.
package report

import (
	"sort"

	"margins/internal/domain"
	"margins/internal/margin"
	"margins/internal/schema"
)

// GroupBy selects the output granularity.
type GroupBy string

const (
	GroupNone          GroupBy = "none"
	GroupProduct       GroupBy = "product"
	GroupProductPeriod GroupBy = "product_period"
	GroupInvoice       GroupBy = "invoice"
)

// GroupBys lists the accepted grouping names, for config validation.
func GroupBys() []string {
	return []string{string(GroupNone), string(GroupProduct), string(GroupProductPeriod), string(GroupInvoice)}
}

// Filter constrains the projected rows. Empty values (and the legacy
// "Todos"/"all" spellings) mean no constraint. Matching is exact on the
// canonical form, the same normalization applied to keys upstream.
type Filter struct {
	Client  string
	Product string // matches product name
	Period  string
}

// Config drives one projection.
type Config struct {
	GroupBy GroupBy
	Filter  Filter
}

// Project filters, groups, and orders the margin table. The input is
// never mutated; repeated calls with the same arguments produce
// identical output.
func Project(rows []domain.MarginRecord, cfg Config) []domain.MarginRecord {
	out := filterRows(rows, cfg.Filter)

	switch cfg.GroupBy {
	case GroupProduct:
		out = group(out, func(m domain.MarginRecord) groupKey {
			return groupKey{a: m.ProductCode}
		}, false)
	case GroupProductPeriod:
		out = group(out, func(m domain.MarginRecord) groupKey {
			return groupKey{a: m.ProductCode, b: m.Period}
		}, false)
	case GroupInvoice:
		out = group(out, func(m domain.MarginRecord) groupKey {
			return groupKey{a: m.Invoice}
		}, true)
	default:
		// line-item granularity; copy so sorting never reorders the input
		out = append([]domain.MarginRecord(nil), out...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		if a.Invoice != b.Invoice {
			return a.Invoice < b.Invoice
		}
		return a.ProductCode < b.ProductCode
	})
	return out
}

func filterRows(rows []domain.MarginRecord, f Filter) []domain.MarginRecord {
	client := canonFilter(f.Client)
	product := canonFilter(f.Product)
	period := canonFilter(f.Period)
	if client == "" && product == "" && period == "" {
		return rows
	}

	out := make([]domain.MarginRecord, 0, len(rows))
	for _, m := range rows {
		if client != "" && schema.Canon(m.Client, true) != client {
			continue
		}
		if product != "" && schema.Canon(m.ProductName, true) != product {
			continue
		}
		if period != "" && schema.Canon(m.Period, true) != period {
			continue
		}
		out = append(out, m)
	}
	return out
}

// canonFilter canonicalizes a filter value; the "all" spellings collapse
// to the empty (no-op) filter.
func canonFilter(s string) string {
	c := schema.Canon(s, true)
	if c == "ALL" || c == "TODOS" {
		return ""
	}
	return c
}

type groupKey struct{ a, b string }

// group merges rows sharing a key. Quantities, net amounts, and total
// costs sum; unit price and unit cost are recomputed from the sums, and
// the margin follows from those. Descriptive fields that are
// group-invariant in practice (client, product name, product code on
// invoice grouping) take the first-seen value. HasCosting ANDs across
// lines so a partially uncosted group stays visibly uncosted.
//
// For invoice grouping, invoiceGrain widens "product" from line item to
// invoice: unit cost is total cost over invoice quantity.
func group(rows []domain.MarginRecord, key func(domain.MarginRecord) groupKey, invoiceGrain bool) []domain.MarginRecord {
	agg := make(map[groupKey]*domain.MarginRecord, len(rows))
	order := make([]groupKey, 0, len(rows))

	for _, m := range rows {
		k := key(m)
		g, ok := agg[k]
		if !ok {
			first := m
			if !invoiceGrain {
				first.Invoice = ""
			}
			first.Quantity, first.Net, first.TotalCost = 0, 0, 0
			first.HasCosting = true
			agg[k] = &first
			order = append(order, k)
			g = &first
		}
		g.Quantity += m.Quantity
		g.Net += m.Net
		g.TotalCost += m.TotalCost
		g.HasCosting = g.HasCosting && m.HasCosting
	}

	out := make([]domain.MarginRecord, 0, len(order))
	for _, k := range order {
		g := agg[k]
		if g.Quantity != 0 {
			up := g.Net / g.Quantity
			g.UnitPrice = &up
			g.UnitCost = g.TotalCost / g.Quantity
		} else {
			g.UnitPrice = nil
			g.UnitCost = 0
		}
		g.MarginPct = margin.Pct(g.UnitCost, g.UnitPrice)
		out = append(out, *g)
	}
	return out
}

// Distinct returns the sorted distinct clients, product names, and
// periods present in the table, for filter population. Empty values are
// dropped.
func Distinct(rows []domain.MarginRecord) (clients, products, periods []string) {
	clients = distinctBy(rows, func(m domain.MarginRecord) string { return m.Client })
	products = distinctBy(rows, func(m domain.MarginRecord) string { return m.ProductName })
	periods = distinctBy(rows, func(m domain.MarginRecord) string { return m.Period })
	return clients, products, periods
}

func distinctBy(rows []domain.MarginRecord, get func(domain.MarginRecord) string) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, m := range rows {
		v := get(m)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
