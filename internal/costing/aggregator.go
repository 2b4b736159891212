// Package costing expands product recipes into per-product unit costs by
// pricing every recipe line and summing the line costs.
package costing

import "margins/internal/domain"

// ResolveFunc looks up the applicable unit price for an input in a
// period. ok=false means no price could be resolved; the line then
// contributes zero without suppressing the rest of the recipe.
type ResolveFunc func(inputCode, period string) (price float64, ok bool)

// Aggregator computes unit costs per product, optionally per product and
// period. It is a pure transform: same lines and resolver, same output.
type Aggregator struct {
	// PeriodScoped keys costs by (product, period) and restricts each
	// period's cost to recipe lines valid for that period (lines without
	// a period apply to all). When false, costs are global per product
	// and recipe periods are ignored.
	PeriodScoped bool
}

// Aggregate returns unit costs keyed by product (and period when
// scoped). A product with no recipe lines has no entry at all, not a
// zero-cost row; absence is how downstream distinguishes "no recipe"
// from "recipe that happens to cost zero".
func (a Aggregator) Aggregate(lines []domain.RecipeLine, periods []string, resolve ResolveFunc) map[domain.CostKey]float64 {
	costs := make(map[domain.CostKey]float64)

	if !a.PeriodScoped {
		for _, l := range lines {
			price, _ := resolve(l.InputCode, "")
			key := domain.CostKey{ProductCode: l.ProductCode}
			costs[key] += l.Quantity * price
		}
		return costs
	}

	seen := make(map[string]struct{}, len(periods))
	for _, p := range periods {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		for _, l := range lines {
			if l.Period != "" && l.Period != p {
				continue
			}
			price, _ := resolve(l.InputCode, p)
			key := domain.CostKey{ProductCode: l.ProductCode, Period: p}
			costs[key] += l.Quantity * price
		}
	}
	return costs
}
