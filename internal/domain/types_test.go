package domain

import (
	"testing"
	"time"

	"margins/internal/schema"
	"margins/pkg/records"
)

func TestDecodeSales(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		{
			schema.FieldProductCode: "CAKE-01",
			schema.FieldClient:      "CAFE SUR",
			schema.FieldQuantity:    2.0,
			schema.FieldUnitPrice:   50.0,
			schema.FieldNet:         100.0,
		},
		{
			schema.FieldProductCode: "PIE-01",
			schema.FieldQuantity:    1.0,
			schema.FieldNet:         30.0,
			// no unit price column at all
		},
	}

	out := DecodeSales(in)

	if len(out) != 2 {
		t.Fatalf("rows=%d; want 2", len(out))
	}
	if out[0].UnitPrice == nil || *out[0].UnitPrice != 50 {
		t.Fatalf("unit price=%v; want 50", out[0].UnitPrice)
	}
	if out[1].UnitPrice != nil {
		t.Fatalf("unit price=%v; want nil when not supplied", out[1].UnitPrice)
	}
	if out[0].Quantity != 2 || out[0].Net != 100 || out[0].Client != "CAFE SUR" {
		t.Fatalf("sale=%+v", out[0])
	}
}

func TestDecodeRecipesDropsUnjoinableLines(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		{schema.FieldProductCode: "CAKE-01", schema.FieldInputCode: "FLOUR", schema.FieldQuantity: 2.0},
		{schema.FieldProductCode: "CAKE-01", schema.FieldQuantity: 1.0},
		{schema.FieldInputCode: "SUGAR", schema.FieldQuantity: 1.0},
	}

	out := DecodeRecipes(in)

	if len(out) != 1 || out[0].InputCode != "FLOUR" {
		t.Fatalf("lines=%+v; want only the complete one", out)
	}
}

func TestDecodePrices(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	in := []records.Record{
		{schema.FieldInputCode: "FLOUR", schema.FieldPrice: 18.0, schema.FieldEffective: when},
		{schema.FieldInputCode: "SALT", schema.FieldPrice: 7.0},
		{schema.FieldPrice: 1.0},
	}

	out := DecodePrices(in)

	if len(out) != 2 {
		t.Fatalf("prices=%d; want 2 (codeless row dropped)", len(out))
	}
	if out[0].Effective == nil || !out[0].Effective.Equal(when) {
		t.Fatalf("effective=%v; want %v", out[0].Effective, when)
	}
	if out[1].Effective != nil {
		t.Fatalf("effective=%v; want nil when absent", out[1].Effective)
	}
	if out[0].InputCode != "FLOUR" || out[1].InputCode != "SALT" {
		t.Fatalf("order not preserved: %+v", out)
	}
}
