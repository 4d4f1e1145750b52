package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/assetflow/internal/client/models"
)

// parseAssignments turns "field=value" tokens into a record payload.
// Values that are valid JSON (numbers, booleans, null, quoted strings,
// arrays, objects) are decoded; anything else is kept as a plain string.
func parseAssignments(args []string) (models.Record, error) {
	rec := models.Record{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		rec[key] = parseValue(strings.TrimSpace(raw))
	}
	return rec, nil
}

func parseValue(raw string) any {
	if raw == "" {
		return ""
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// listQuery is the parsed form of the list command arguments.
type listQuery struct {
	search string
	equals map[string]string
	sortBy string
	desc   bool
}

// parseListArgs splits list arguments into search words, field=value
// filters and an optional sort=field[:desc].
func parseListArgs(args []string) listQuery {
	q := listQuery{equals: map[string]string{}}
	var words []string
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			words = append(words, arg)
			continue
		}
		if key == "sort" {
			field, dir, _ := strings.Cut(val, ":")
			q.sortBy = field
			q.desc = strings.EqualFold(dir, "desc")
			continue
		}
		q.equals[key] = val
	}
	q.search = strings.Join(words, " ")
	return q
}
