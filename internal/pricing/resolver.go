// Package pricing resolves the applicable unit price for each
// (input code, target period) pair from a history of price observations.
package pricing

import (
	"sort"
	"time"

	"margins/internal/domain"
)

// Strategy selects how a price history is reduced to one applicable price.
type Strategy string

const (
	// LatestByDate picks the last observation effective at or before the
	// target period's end boundary (the overall latest when the target
	// has no parsable boundary).
	LatestByDate Strategy = "latest_by_date"

	// ExactPeriod picks the last observation recorded under the exact
	// target period label.
	ExactPeriod Strategy = "exact_period"
)

// Strategies lists the accepted strategy names, for config validation.
func Strategies() []string {
	return []string{string(LatestByDate), string(ExactPeriod)}
}

// Resolver answers price lookups. It is built once from the full set of
// observations and is read-only afterwards, so distinct input codes may
// be resolved concurrently.
//
// A resolved price is always a single observation, never an average or a
// sum; ties on effective date fall to the later row in input order.
type Resolver struct {
	strategy Strategy
	byInput  map[string][]domain.InputPrice
}

// NewResolver groups observations per input code and orders each history
// ascending by effective date. Observations without an effective date
// sort first (lowest priority); the sort is stable so equal dates keep
// their order of appearance.
func NewResolver(obs []domain.InputPrice, strategy Strategy) *Resolver {
	if strategy == "" {
		strategy = LatestByDate
	}
	byInput := make(map[string][]domain.InputPrice)
	for _, o := range obs {
		byInput[o.InputCode] = append(byInput[o.InputCode], o)
	}
	for _, history := range byInput {
		sort.SliceStable(history, func(i, j int) bool {
			a, b := history[i].Effective, history[j].Effective
			switch {
			case a == nil && b == nil:
				return false
			case a == nil:
				return true
			case b == nil:
				return false
			default:
				return a.Before(*b)
			}
		})
	}
	return &Resolver{strategy: strategy, byInput: byInput}
}

// Resolve returns the applicable unit price for an input in the target
// period. ok is false when no observation applies; callers propagate that
// as an uncosted signal (price 0) rather than failing the run.
func (r *Resolver) Resolve(inputCode, period string) (price float64, ok bool) {
	history := r.byInput[inputCode]
	if len(history) == 0 {
		return 0, false
	}

	if r.strategy == ExactPeriod && period != "" {
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Period == period {
				return history[i].UnitPrice, true
			}
		}
		return 0, false
	}

	end, bounded := periodEnd(period)
	if !bounded {
		return history[len(history)-1].UnitPrice, true
	}
	for i := len(history) - 1; i >= 0; i-- {
		eff := history[i].Effective
		if eff == nil || eff.Before(end) {
			return history[i].UnitPrice, true
		}
	}
	return 0, false
}

// periodLayouts are the period label shapes that carry a calendar
// position. Anything else (e.g. a bare month name) is an opaque label and
// resolution falls back to the overall latest observation.
var periodLayouts = []string{"2006-01", "2006/01", "01-2006", "2006-01-02"}

// periodEnd returns the exclusive end boundary of a period label.
func periodEnd(label string) (time.Time, bool) {
	for _, layout := range periodLayouts {
		t, err := time.Parse(layout, label)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			return t.AddDate(0, 0, 1), true
		}
		return t.AddDate(0, 1, 0), true
	}
	return time.Time{}, false
}
