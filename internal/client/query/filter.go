// Package query filters, sorts and summarises collection snapshots on the
// client. Every function is read-only over its input.
package query

import (
	"sort"
	"strings"

	"github.com/dmitrijs2005/assetflow/internal/client/models"
)

// All is the filter value that matches any field value.
const All = "all"

// searchFields lists the fields searched by default per collection.
// Collections not listed are searched across every string field.
var searchFields = map[models.CollectionName][]string{
	models.Assets: {"name", "asset_id", "serial_number", "assigned_to_email"},
}

// DefaultSearchFields returns the fields searched for c, or nil when every
// string field is searched.
func DefaultSearchFields(c models.CollectionName) []string {
	f := searchFields[c]
	if f == nil {
		return nil
	}
	return append([]string(nil), f...)
}

type Filter struct {
	// Search is matched case-insensitively as a substring of any of
	// SearchFields. Empty matches everything.
	Search       string
	SearchFields []string
	// Equals constrains fields to exact values. A value of "" or "all"
	// places no constraint.
	Equals map[string]string
}

func (f Filter) Match(r models.Record) bool {
	for field, want := range f.Equals {
		if want == "" || strings.EqualFold(want, All) {
			continue
		}
		if r.String(field) != want {
			return false
		}
	}

	needle := strings.ToLower(strings.TrimSpace(f.Search))
	if needle == "" {
		return true
	}

	if len(f.SearchFields) > 0 {
		for _, field := range f.SearchFields {
			if strings.Contains(strings.ToLower(r.String(field)), needle) {
				return true
			}
		}
		return false
	}

	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := r[k].(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

// Apply returns the records matching f, in their original order.
func Apply(records []models.Record, f Filter) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
