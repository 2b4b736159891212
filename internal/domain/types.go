// Package domain holds the typed rows flowing through the costing
// pipeline. All values are decoded from normalized, coerced records and
// are immutable once built; stages communicate only through these types.
package domain

import (
	"time"

	"margins/internal/schema"
	"margins/pkg/records"
)

// SaleRecord is one sold line item from the sales book.
type SaleRecord struct {
	ProductCode string
	ProductName string
	Client      string
	Invoice     string
	Period      string
	Quantity    float64
	// UnitPrice is the directly supplied unit price, nil when the source
	// only carries a net amount.
	UnitPrice *float64
	Net       float64
}

// RecipeLine is one (product, input, quantity used) triple from the
// bill-of-materials table.
type RecipeLine struct {
	ProductCode string
	InputCode   string
	Quantity    float64
	Period      string
}

// InputPrice is one price observation for an input.
type InputPrice struct {
	InputCode string
	UnitPrice float64
	Effective *time.Time
	Period    string
}

// CostKey identifies a derived product cost. Period is empty when costs
// are resolved globally rather than per month.
type CostKey struct {
	ProductCode string
	Period      string
}

// MarginRecord is the joined output row: one per sale line (or per group
// after projection).
type MarginRecord struct {
	Period      string
	Client      string
	ProductCode string
	ProductName string
	Invoice     string
	Quantity    float64
	// UnitPrice is nil when undefined (no direct price and quantity 0).
	UnitPrice  *float64
	Net        float64
	UnitCost   float64
	TotalCost  float64
	MarginPct  float64
	HasCosting bool
}

// DecodeSales builds typed sale rows from normalized records.
func DecodeSales(in []records.Record) []SaleRecord {
	out := make([]SaleRecord, 0, len(in))
	for _, r := range in {
		s := SaleRecord{
			ProductCode: r.String(schema.FieldProductCode),
			ProductName: r.String(schema.FieldProductName),
			Client:      r.String(schema.FieldClient),
			Invoice:     r.String(schema.FieldInvoice),
			Period:      r.String(schema.FieldPeriod),
			Quantity:    r.Float(schema.FieldQuantity),
			Net:         r.Float(schema.FieldNet),
		}
		if v, ok := r[schema.FieldUnitPrice].(float64); ok {
			up := v
			s.UnitPrice = &up
		}
		out = append(out, s)
	}
	return out
}

// DecodeRecipes builds typed recipe lines from normalized records. Lines
// without a product or input code cannot participate in any join and are
// dropped here rather than poisoning cost aggregation.
func DecodeRecipes(in []records.Record) []RecipeLine {
	out := make([]RecipeLine, 0, len(in))
	for _, r := range in {
		l := RecipeLine{
			ProductCode: r.String(schema.FieldProductCode),
			InputCode:   r.String(schema.FieldInputCode),
			Quantity:    r.Float(schema.FieldQuantity),
			Period:      r.String(schema.FieldPeriod),
		}
		if l.ProductCode == "" || l.InputCode == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// DecodePrices builds typed price observations from normalized records,
// preserving input order (order of appearance breaks resolution ties).
func DecodePrices(in []records.Record) []InputPrice {
	out := make([]InputPrice, 0, len(in))
	for _, r := range in {
		p := InputPrice{
			InputCode: r.String(schema.FieldInputCode),
			UnitPrice: r.Float(schema.FieldPrice),
			Period:    r.String(schema.FieldPeriod),
		}
		if p.InputCode == "" {
			continue
		}
		if t, ok := r.Time(schema.FieldEffective); ok {
			eff := t
			p.Effective = &eff
		}
		out = append(out, p)
	}
	return out
}
