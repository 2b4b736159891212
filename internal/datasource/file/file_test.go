package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"margins/internal/config"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestFetch(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"sales.csv":   "CODIGO,CANTIDAD\nA-1,2\n",
		"recipes.csv": "CODIGO,INSUMO,CANTIDAD\nA-1,FLOUR,3\nbad-row\n",
		"prices.csv":  "INSUMO,PRECIO\nFLOUR,10\n",
	})

	bundle, err := New(config.SourceFile{Dir: dir}).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(bundle.Sales.Rows) != 1 || len(bundle.Recipes.Rows) != 1 || len(bundle.Prices.Rows) != 1 {
		t.Fatalf("row counts: sales=%d recipes=%d prices=%d; want 1 each",
			len(bundle.Sales.Rows), len(bundle.Recipes.Rows), len(bundle.Prices.Rows))
	}
	if bundle.Recipes.Skipped != 1 {
		t.Fatalf("recipes skipped=%d; want 1", bundle.Recipes.Skipped)
	}
	if got := bundle.Sales.Rows[0]["CODIGO"]; got != "A-1" {
		t.Fatalf("sales row=%v", bundle.Sales.Rows[0])
	}
}

func TestFetchMissingFile(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"sales.csv":   "CODIGO,CANTIDAD\n",
		"recipes.csv": "CODIGO,INSUMO,CANTIDAD\n",
	})

	if _, err := New(config.SourceFile{Dir: dir}).Fetch(context.Background()); err == nil {
		t.Fatal("want error when a table file is missing")
	}
}

func TestFetchCustomNamesAndDelimiter(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"ventas.tsv":  "CODIGO;CANTIDAD\nA-1;2\n",
		"recetas.tsv": "CODIGO;INSUMO;CANTIDAD\n",
		"precios.tsv": "INSUMO;PRECIO\n",
	})

	src := New(config.SourceFile{
		Dir:       dir,
		Sales:     "ventas.tsv",
		Recipes:   "recetas.tsv",
		Prices:    "precios.tsv",
		Delimiter: ";",
	})
	bundle, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := bundle.Sales.Rows[0]["CANTIDAD"]; got != "2" {
		t.Fatalf("sales row=%v; want delimiter-split fields", bundle.Sales.Rows[0])
	}
}
