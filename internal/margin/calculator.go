// Package margin joins resolved product costs onto sale records and
// derives unit price, unit cost, and margin percentage per sale line.
package margin

import (
	"math"

	"margins/internal/domain"
)

// Sentinel is the margin value used when no margin can be computed: unit
// price undefined or zero, or a non-finite ratio. It deliberately reads
// as 0 ("breakeven"), which conflates "no margin data" with "exactly
// breakeven"; consumers must consult HasCosting and UnitPrice to tell the
// two apart.
const Sentinel = 0.0

// Calculator left-joins sales against product costs.
type Calculator struct {
	// PeriodScoped joins on (product, period) instead of product only.
	// It must match the Aggregator setting used to build the costs.
	PeriodScoped bool
}

// Compute returns one MarginRecord per sale, in input order. Sales with
// no matching cost entry are kept and flagged HasCosting=false, never
// dropped: the output preserves the complete sales record set.
//
// HasCosting is existence-based: a product whose recipe resolves to a
// zero cost is still costed.
func (c Calculator) Compute(sales []domain.SaleRecord, costs map[domain.CostKey]float64) []domain.MarginRecord {
	out := make([]domain.MarginRecord, 0, len(sales))
	for _, s := range sales {
		key := domain.CostKey{ProductCode: s.ProductCode}
		if c.PeriodScoped {
			key.Period = s.Period
		}
		unitCost, hasCosting := costs[key]

		m := domain.MarginRecord{
			Period:      s.Period,
			Client:      s.Client,
			ProductCode: s.ProductCode,
			ProductName: s.ProductName,
			Invoice:     s.Invoice,
			Quantity:    s.Quantity,
			Net:         s.Net,
			UnitCost:    unitCost,
			TotalCost:   unitCost * s.Quantity,
			HasCosting:  hasCosting,
		}
		m.UnitPrice = unitPrice(s)
		m.MarginPct = Pct(unitCost, m.UnitPrice)
		out = append(out, m)
	}
	return out
}

// unitPrice prefers the directly supplied unit price and otherwise
// derives net/quantity. Quantity zero leaves the price undefined (nil);
// there is no divide-by-zero path.
func unitPrice(s domain.SaleRecord) *float64 {
	if s.UnitPrice != nil {
		up := *s.UnitPrice
		return &up
	}
	if s.Quantity == 0 {
		return nil
	}
	up := s.Net / s.Quantity
	return &up
}

// Pct computes 1 - cost/price, normalizing every undefined or non-finite
// outcome to the Sentinel.
func Pct(unitCost float64, unitPrice *float64) float64 {
	if unitPrice == nil || *unitPrice == 0 {
		return Sentinel
	}
	pct := 1 - unitCost / *unitPrice
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return Sentinel
	}
	return pct
}
