package report

import (
	"reflect"
	"testing"

	"margins/internal/domain"
)

func fp(f float64) *float64 { return &f }

func sampleRows() []domain.MarginRecord {
	return []domain.MarginRecord{
		{
			Period: "2024-02", Client: "CAFE SUR", ProductCode: "CAKE", ProductName: "Torta Chocolate",
			Invoice: "F-002", Quantity: 1, UnitPrice: fp(60), Net: 60, UnitCost: 40, TotalCost: 40,
			MarginPct: 1 - 40.0/60.0, HasCosting: true,
		},
		{
			Period: "2024-01", Client: "CAFE SUR", ProductCode: "CAKE", ProductName: "Torta Chocolate",
			Invoice: "F-001", Quantity: 2, UnitPrice: fp(50), Net: 100, UnitCost: 40, TotalCost: 80,
			MarginPct: 1 - 40.0/50.0, HasCosting: true,
		},
		{
			Period: "2024-01", Client: "BAR NORTE", ProductCode: "PIE", ProductName: "Kuchen Manzana",
			Invoice: "F-001", Quantity: 1, UnitPrice: fp(30), Net: 30, UnitCost: 0, TotalCost: 0,
			MarginPct: 1, HasCosting: false,
		},
	}
}

/*
TestProjectFilters verifies exact-match filtering on the canonical form:
  - accents and casing in the filter value do not matter,
  - "Todos" and "all" spellings disable a filter,
  - filters combine conjunctively.
*/
func TestProjectFilters(t *testing.T) {
	t.Parallel()

	rows := sampleRows()

	got := Project(rows, Config{GroupBy: GroupNone, Filter: Filter{Client: "café sur"}})
	if len(got) != 2 {
		t.Fatalf("client filter rows=%d; want 2", len(got))
	}

	got = Project(rows, Config{GroupBy: GroupNone, Filter: Filter{Client: "Todos", Period: "2024-01"}})
	if len(got) != 2 {
		t.Fatalf("Todos client + period rows=%d; want 2", len(got))
	}

	got = Project(rows, Config{GroupBy: GroupNone, Filter: Filter{Product: "torta chocolate", Period: "2024-01"}})
	if len(got) != 1 || got[0].Invoice != "F-001" || got[0].ProductCode != "CAKE" {
		t.Fatalf("combined filter got %+v; want the january cake line", got)
	}
}

func TestProjectOrdering(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	inputCopy := append([]domain.MarginRecord(nil), rows...)

	got := Project(rows, Config{GroupBy: GroupNone})

	wantOrder := []string{"BAR NORTE", "CAFE SUR", "CAFE SUR"}
	for i, client := range wantOrder {
		if got[i].Client != client {
			t.Fatalf("row %d client=%q; want %q (period, client, invoice, product order)", i, got[i].Client, client)
		}
	}
	if got[0].Period != "2024-01" || got[2].Period != "2024-02" {
		t.Fatalf("periods out of order: %+v", got)
	}
	if !reflect.DeepEqual(rows, inputCopy) {
		t.Fatal("Project mutated its input")
	}
}

/*
TestProjectGroupProduct verifies product grouping arithmetic: quantities,
net amounts, and total costs sum; unit price and cost are recomputed from
the sums; the invoice column is cleared; HasCosting ANDs across lines.
*/
func TestProjectGroupProduct(t *testing.T) {
	t.Parallel()

	got := Project(sampleRows(), Config{GroupBy: GroupProduct})

	if len(got) != 2 {
		t.Fatalf("groups=%d; want 2", len(got))
	}

	var cake domain.MarginRecord
	for _, g := range got {
		if g.ProductCode == "CAKE" {
			cake = g
		}
	}
	if cake.Quantity != 3 || cake.Net != 160 || cake.TotalCost != 120 {
		t.Fatalf("cake group=%+v; want qty 3, net 160, total cost 120", cake)
	}
	if cake.UnitPrice == nil || *cake.UnitPrice != 160.0/3 || cake.UnitCost != 40 {
		t.Fatalf("cake group=%+v; want recomputed unit price and cost", cake)
	}
	if cake.Invoice != "" {
		t.Fatalf("cake group invoice=%q; want cleared", cake.Invoice)
	}
	if !cake.HasCosting {
		t.Fatal("fully costed group must keep HasCosting")
	}
}

func TestProjectGroupInvoice(t *testing.T) {
	t.Parallel()

	got := Project(sampleRows(), Config{GroupBy: GroupInvoice})

	if len(got) != 2 {
		t.Fatalf("groups=%d; want 2", len(got))
	}

	var f001 domain.MarginRecord
	for _, g := range got {
		if g.Invoice == "F-001" {
			f001 = g
		}
	}
	if f001.Quantity != 3 || f001.Net != 130 || f001.TotalCost != 80 {
		t.Fatalf("invoice group=%+v; want qty 3, net 130, total cost 80", f001)
	}
	if f001.HasCosting {
		t.Fatal("group with an uncosted line must report HasCosting=false")
	}
}

func TestDistinct(t *testing.T) {
	t.Parallel()

	rows := append(sampleRows(), domain.MarginRecord{Period: "", Client: "", ProductName: ""})
	clients, products, periods := Distinct(rows)

	if !reflect.DeepEqual(clients, []string{"BAR NORTE", "CAFE SUR"}) {
		t.Fatalf("clients=%v", clients)
	}
	if !reflect.DeepEqual(products, []string{"Kuchen Manzana", "Torta Chocolate"}) {
		t.Fatalf("products=%v", products)
	}
	if !reflect.DeepEqual(periods, []string{"2024-01", "2024-02"}) {
		t.Fatalf("periods=%v", periods)
	}
}
