package transform

import (
	"strconv"
	"strings"
	"time"

	"margins/pkg/records"
)

// DateLayouts are tried in order when no layouts are configured.
var DateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "2006-01"}

// Coerce converts the configured numeric and date fields of each record
// from text to typed values.
//
// Numeric coercion is deliberately lossy: a non-empty value that fails to
// parse becomes 0, matching the domain's tolerance for dirty spreadsheet
// data. Empty or missing cells stay nil so that downstream stages can tell
// "not supplied" from "supplied as zero". Currency symbols and
// locale-specific separators are unescaped before parsing: "$1.234,56"
// parses as 1234.56.
//
// Date coercion tries each layout in order; an unparsable date becomes
// nil, never a default date.
//
// Coerce rewrites values in place and assumes it owns the records it is
// given (the pipeline hands it the copies produced by Normalize).
type Coerce struct {
	Numbers []string
	Dates   []string
	Layouts []string // date layouts; DateLayouts when empty
}

func (c Coerce) Apply(in []records.Record) []records.Record {
	layouts := c.Layouts
	if len(layouts) == 0 {
		layouts = DateLayouts
	}

	for _, r := range in {
		for _, f := range c.Numbers {
			v, ok := r[f]
			if !ok || v == nil {
				continue
			}
			if _, already := v.(float64); already {
				continue
			}
			s := r.String(f)
			if s == "" {
				r[f] = nil
				continue
			}
			r[f] = ParseNumber(s)
		}
		for _, f := range c.Dates {
			v, ok := r[f]
			if !ok || v == nil {
				continue
			}
			if _, already := v.(time.Time); already {
				continue
			}
			s := strings.TrimSpace(r.String(f))
			if s == "" {
				r[f] = nil
				continue
			}
			r[f] = parseDate(s, layouts)
		}
	}
	return in
}

// ParseNumber parses a locale-tolerant numeric string. Currency symbols
// and any other non-numeric runes are dropped first; then the decimal
// separator is disambiguated:
//
//   - both '.' and ',' present: the rightmost one is the decimal
//     separator, the other marks thousands ("1.234,56" -> 1234.56,
//     "1,234.56" -> 1234.56)
//   - only ',' present: decimal comma ("12,5" -> 12.5)
//   - a single '.': decimal point ("12.5" -> 12.5)
//   - several '.': thousands separators ("1.234.567" -> 1234567)
//
// Anything that still fails strconv.ParseFloat yields 0.
func ParseNumber(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+':
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return 0
	}

	dot := strings.LastIndexByte(clean, '.')
	comma := strings.LastIndexByte(clean, ',')
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case comma >= 0:
		// single comma is a decimal separator, multiples mark thousands
		if strings.Count(clean, ",") == 1 {
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case strings.Count(clean, ".") > 1:
		clean = strings.ReplaceAll(clean, ".", "")
	}

	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseDate(s string, layouts []string) any {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return nil
}
