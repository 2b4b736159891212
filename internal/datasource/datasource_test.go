package datasource

import (
	"context"
	"errors"
	"strings"
	"testing"

	"margins/internal/config"
)

type fakeSource struct {
	fetches int
	err     error
}

func (f *fakeSource) Fetch(ctx context.Context) (*Bundle, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return &Bundle{}, nil
}

func TestRegistry(t *testing.T) {
	fake := &fakeSource{}
	Register("fake", func(cfg config.Source) (TableSource, error) {
		return fake, nil
	})

	src, err := New(config.Source{Kind: "fake"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if src != fake {
		t.Fatal("factory returned the wrong source")
	}

	_, err = New(config.Source{Kind: "telepathy"})
	if err == nil {
		t.Fatal("want error for unknown kind")
	}
	if !strings.Contains(err.Error(), "fake") {
		t.Fatalf("error %q should list registered kinds", err)
	}
}

func TestCached(t *testing.T) {
	t.Parallel()

	t.Run("memoizes a successful fetch", func(t *testing.T) {
		t.Parallel()
		inner := &fakeSource{}
		c := &Cached{Source: inner}

		first, err := c.Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		second, err := c.Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if inner.fetches != 1 {
			t.Fatalf("fetches=%d; want 1", inner.fetches)
		}
		if first != second {
			t.Fatal("cached fetch must return the same bundle")
		}
	})

	t.Run("does not cache failures", func(t *testing.T) {
		t.Parallel()
		inner := &fakeSource{err: errors.New("boom")}
		c := &Cached{Source: inner}

		if _, err := c.Fetch(context.Background()); err == nil {
			t.Fatal("want first error")
		}
		inner.err = nil
		if _, err := c.Fetch(context.Background()); err != nil {
			t.Fatalf("second fetch: %v", err)
		}
		if inner.fetches != 2 {
			t.Fatalf("fetches=%d; want 2", inner.fetches)
		}
	})
}
