package transform

import (
	"sort"

	"margins/internal/schema"
	"margins/pkg/records"
)

// Normalize canonicalizes one table: every column key is rewritten to its
// canonical form and, where the rename map knows it, to its logical field
// name; the values of designated key and period columns are canonicalized
// the same way. The same Normalize settings must be applied to all three
// tables or joins silently drop rows on mismatched keys.
//
// Normalize returns fresh record copies; the input slice and its records
// are left untouched.
type Normalize struct {
	// Rename maps canonical physical header -> logical field name, as
	// produced by schema.Resolve. Unmapped columns are carried through
	// under their canonical header.
	Rename map[string]string

	// Keys lists the logical fields whose values are canonicalized
	// (join keys and period labels).
	Keys []string

	// StripDiacritics folds accented characters in headers and key
	// values, so "NÚMERO" matches "NUMERO".
	StripDiacritics bool
}

func (n Normalize) Apply(in []records.Record) []records.Record {
	keySet := make(map[string]struct{}, len(n.Keys))
	for _, k := range n.Keys {
		keySet[k] = struct{}{}
	}

	out := make([]records.Record, len(in))
	for i, rec := range in {
		columns := make([]string, 0, len(rec))
		for k := range rec {
			columns = append(columns, k)
		}
		sort.Strings(columns)

		nr := make(records.Record, len(rec))
		for _, k := range columns {
			v := rec[k]
			key := schema.Canon(k, n.StripDiacritics)
			if logical, ok := n.Rename[key]; ok {
				key = logical
			}
			if _, isKey := keySet[key]; isKey {
				if s := rec.String(k); s != "" {
					v = schema.Canon(s, n.StripDiacritics)
				}
			}
			// Distinct physical headers can fold into the same key
			// ("MES" and "Mes "). The first non-nil value in sorted
			// header order wins; map iteration order never decides.
			if prev, exists := nr[key]; exists && prev != nil {
				continue
			}
			nr[key] = v
		}
		out[i] = nr
	}
	return out
}
