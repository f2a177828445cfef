package filter

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// SplitPath splits a dotted field path ("address.city", "tags.0")
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// ResolveNestedPath returns the value at a dotted path inside a row.
// A field literally named with dots wins over path traversal.
// Missing keys and out-of-range indexes resolve to nil.
func ResolveNestedPath(row models.Row, path string) interface{} {
	if v, ok := row[path]; ok {
		return v
	}

	var current interface{} = map[string]interface{}(row)
	for _, part := range SplitPath(path) {
		switch curr := current.(type) {
		case models.Row:
			current = curr[part]
		case map[string]interface{}:
			current = curr[part]
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(curr) {
				return nil
			}
			current = curr[idx]
		case string:
			// JSON stored as text, e.g. a jsonb column read from SQLite
			var parsed interface{}
			if err := json.Unmarshal([]byte(curr), &parsed); err != nil {
				return nil
			}
			switch p := parsed.(type) {
			case map[string]interface{}:
				current = p[part]
			case []interface{}:
				idx, err := strconv.Atoi(part)
				if err != nil || idx < 0 || idx >= len(p) {
					return nil
				}
				current = p[idx]
			default:
				return nil
			}
		default:
			return nil
		}
	}

	return current
}
