package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// listSeparator joins the normalized elements of a list value.
const listSeparator = " | "

// literalKeys are checked in order when an object value is normalized.
var literalKeys = []string{"_value", "text"}

// NormalizeText reduces a decoded JSON value of unknown shape to a single
// display string. It returns nil for absent values.
//
//   - string: returned unchanged
//   - object: the first non-empty of "_value" or "text", normalized; otherwise
//     the object's compact JSON
//   - list: each element normalized, empty results dropped, joined with " | "
//   - any other scalar: its string form
//
// NormalizeText never fails, and applying it to its own output is a no-op.
func NormalizeText(v any) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return &t
	case map[string]any:
		for _, key := range literalKeys {
			if lit, ok := t[key]; ok && truthy(lit) {
				return NormalizeText(lit)
			}
		}
		s := compactJSON(t)
		return &s
	case []any:
		parts := make([]string, 0, len(t))
		for _, elem := range t {
			if s := NormalizeText(elem); s != nil && *s != "" {
				parts = append(parts, *s)
			}
		}
		s := strings.Join(parts, listSeparator)
		return &s
	default:
		s := scalarString(t)
		return &s
	}
}

// ScalarText renders a value the API guarantees to be scalar (identifiers,
// dates, URLs). Strings pass through unchanged; nil is absent.
func ScalarText(v any) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return &t
	case map[string]any, []any:
		s := compactJSON(t)
		return &s
	default:
		s := scalarString(t)
		return &s
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// truthy mirrors the loose emptiness test applied to literal candidates:
// nil, "", false, zero, and empty containers do not count as a value.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// compactJSON serializes v without insignificant whitespace. Non-ASCII text
// stays as UTF-8 and HTML characters are not escaped.
func compactJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
