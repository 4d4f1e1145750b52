package query

import (
	"slices"
	"strings"

	"github.com/dmitrijs2005/assetflow/internal/client/models"
)

// SortBy returns a stably sorted copy of records ordered by field.
//
// Fields ending in "_date" compare as times, values that are numbers on
// both sides compare numerically and everything else compares as
// case-insensitive strings. Records missing the field sort last in either
// direction.
func SortBy(records []models.Record, field string, desc bool) []models.Record {
	out := slices.Clone(records)
	isDate := strings.HasSuffix(field, "_date")

	slices.SortStableFunc(out, func(a, b models.Record) int {
		aMissing, bMissing := missing(a, field), missing(b, field)
		switch {
		case aMissing && bMissing:
			return 0
		case aMissing:
			return 1
		case bMissing:
			return -1
		}

		c := compare(a, b, field, isDate)
		if desc {
			return -c
		}
		return c
	})
	return out
}

func missing(r models.Record, field string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return true
	}
	s, isStr := v.(string)
	return isStr && s == ""
}

func compare(a, b models.Record, field string, isDate bool) int {
	if isDate {
		ta, okA := a.Time(field)
		tb, okB := b.Time(field)
		if okA && okB {
			return ta.Compare(tb)
		}
	}

	if fa, okA := a[field].(float64); okA {
		if fb, okB := b[field].(float64); okB {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(strings.ToLower(a.String(field)), strings.ToLower(b.String(field)))
}

// Recent returns up to n records, newest first by the first of dateFields
// that parses. Records with no parseable date come last.
func Recent(records []models.Record, n int, dateFields ...string) []models.Record {
	if len(dateFields) == 0 {
		dateFields = []string{"created_date"}
	}
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b models.Record) int {
		ta, okA := firstTime(a, dateFields)
		tb, okB := firstTime(b, dateFields)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		return tb.Compare(ta)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
