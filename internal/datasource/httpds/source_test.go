package httpds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"margins/internal/config"
)

func TestSourceFetch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/sales.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("CODIGO,CANTIDAD\nA-1,2\n"))
	})
	mux.HandleFunc("/recipes.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("CODIGO,INSUMO,CANTIDAD\nA-1,FLOUR,3\n"))
	})
	mux.HandleFunc("/prices.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("INSUMO,PRECIO\nFLOUR,10\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewSource(config.SourceHTTP{
		SalesURL:   srv.URL + "/sales.csv",
		RecipesURL: srv.URL + "/recipes.csv",
		PricesURL:  srv.URL + "/prices.csv",
	}, nil)

	bundle, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(bundle.Sales.Rows) != 1 || len(bundle.Recipes.Rows) != 1 || len(bundle.Prices.Rows) != 1 {
		t.Fatalf("row counts: sales=%d recipes=%d prices=%d; want 1 each",
			len(bundle.Sales.Rows), len(bundle.Recipes.Rows), len(bundle.Prices.Rows))
	}
	if got := bundle.Recipes.Rows[0]["INSUMO"]; got != "FLOUR" {
		t.Fatalf("recipes row=%v", bundle.Recipes.Rows[0])
	}
}

func TestSourceFetchPropagatesHTTPErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewSource(config.SourceHTTP{
		SalesURL:   srv.URL + "/sales.csv",
		RecipesURL: srv.URL + "/recipes.csv",
		PricesURL:  srv.URL + "/prices.csv",
	}, nil)

	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("want error for 404 responses")
	}
}
