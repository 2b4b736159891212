package costing

import (
	"reflect"
	"testing"

	"margins/internal/domain"
)

func pricesOf(table map[string]float64) ResolveFunc {
	return func(inputCode, period string) (float64, bool) {
		p, ok := table[inputCode]
		return p, ok
	}
}

/*
TestAggregateGlobal verifies product-keyed aggregation:
  - line costs sum per product (quantity times resolved price),
  - a line whose input has no price contributes zero without dropping the
    rest of the recipe,
  - products with no recipe lines have no entry at all.
*/
func TestAggregateGlobal(t *testing.T) {
	t.Parallel()

	lines := []domain.RecipeLine{
		{ProductCode: "CAKE", InputCode: "FLOUR", Quantity: 2},
		{ProductCode: "CAKE", InputCode: "SUGAR", Quantity: 1},
		{ProductCode: "CAKE", InputCode: "UNPRICED", Quantity: 5},
		{ProductCode: "BREAD", InputCode: "FLOUR", Quantity: 3},
	}
	resolve := pricesOf(map[string]float64{"FLOUR": 10, "SUGAR": 4})

	got := Aggregator{}.Aggregate(lines, nil, resolve)

	want := map[domain.CostKey]float64{
		{ProductCode: "CAKE"}:  24,
		{ProductCode: "BREAD"}: 30,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("costs=%v; want %v", got, want)
	}
	if _, ok := got[domain.CostKey{ProductCode: "PIE"}]; ok {
		t.Fatal("product without recipe lines must have no entry")
	}
}

/*
TestAggregatePeriodScoped verifies (product, period) aggregation:
  - costs are computed once per distinct period in the universe,
  - lines carrying a period only contribute to that period, unlabeled
    lines contribute to every period,
  - the per-period price resolution is honored.
*/
func TestAggregatePeriodScoped(t *testing.T) {
	t.Parallel()

	lines := []domain.RecipeLine{
		{ProductCode: "CAKE", InputCode: "FLOUR", Quantity: 2},
		{ProductCode: "CAKE", InputCode: "SUGAR", Quantity: 1, Period: "2024-02"},
	}
	resolve := func(inputCode, period string) (float64, bool) {
		prices := map[string]map[string]float64{
			"2024-01": {"FLOUR": 10, "SUGAR": 4},
			"2024-02": {"FLOUR": 12, "SUGAR": 5},
		}
		p, ok := prices[period][inputCode]
		return p, ok
	}

	got := Aggregator{PeriodScoped: true}.Aggregate(lines, []string{"2024-01", "2024-02", "2024-02"}, resolve)

	want := map[domain.CostKey]float64{
		{ProductCode: "CAKE", Period: "2024-01"}: 20,
		{ProductCode: "CAKE", Period: "2024-02"}: 29,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("costs=%v; want %v", got, want)
	}
}
