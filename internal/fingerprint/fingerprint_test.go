package fingerprint

import (
	"testing"

	"margins/internal/domain"
)

func fp(f float64) *float64 { return &f }

func TestTable(t *testing.T) {
	t.Parallel()

	rows := []domain.MarginRecord{
		{Period: "2024-01", Client: "CAFE SUR", ProductCode: "CAKE", Quantity: 2, UnitPrice: fp(50), Net: 100, UnitCost: 40, TotalCost: 80, MarginPct: 0.2, HasCosting: true},
		{Period: "2024-01", Client: "BAR NORTE", ProductCode: "PIE", Quantity: 1, Net: 30, MarginPct: 1},
	}

	a := Table(rows)
	b := Table(rows)
	if a != b {
		t.Fatalf("same table hashed differently: %x vs %x", a, b)
	}

	reordered := []domain.MarginRecord{rows[1], rows[0]}
	if Table(reordered) == a {
		t.Fatal("row order must affect the fingerprint")
	}

	changed := make([]domain.MarginRecord, len(rows))
	copy(changed, rows)
	changed[0].UnitCost = 41
	if Table(changed) == a {
		t.Fatal("a field change must affect the fingerprint")
	}

	// nil and zero unit price are different rows
	withZero := make([]domain.MarginRecord, len(rows))
	copy(withZero, rows)
	withZero[1].UnitPrice = fp(0)
	if Table(withZero) == a {
		t.Fatal("nil unit price and zero unit price must hash differently")
	}
}

func TestTableEmpty(t *testing.T) {
	t.Parallel()

	if Table(nil) != Table([]domain.MarginRecord{}) {
		t.Fatal("empty tables must hash identically")
	}
}
