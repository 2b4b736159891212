// Package records defines the flat row representation shared by parsers,
// data sources, and the costing pipeline. A Record mirrors one spreadsheet
// or query row: column name -> raw value, with nil for absent cells.
package records

import (
	"fmt"
	"strconv"
	"time"
)

// Record is a single flat row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of the record. Values are not deep-copied;
// the pipeline only ever replaces values, never mutates them in place.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the string form of the value under key, or "" when the
// key is missing or nil. Conversion avoids fmt.Sprint for common types.
func (r Record) String(key string) string {
	switch t := r[key].(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// Float returns the numeric value under key, or 0 when the key is missing
// or holds anything other than a number. Coercion from text happens
// upstream in the transform stage; by the time typed stages read a record,
// numeric fields are float64 or absent.
func (r Record) Float(key string) float64 {
	switch t := r[key].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return 0
}

// Time returns the date value under key and whether one is present.
func (r Record) Time(key string) (time.Time, bool) {
	t, ok := r[key].(time.Time)
	return t, ok
}
