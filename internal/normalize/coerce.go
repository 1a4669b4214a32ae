package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tasksync/internal/service"
)

// object returns v as a JSON object, or an empty one.
func object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// parseNumber parses the text of a numeric string. Blank strings are not
// numeric.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// toNumber coerces numbers, numeric strings and booleans.
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		return parseNumber(t)
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// toString renders scalars as text; nil becomes "".
func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// toID keeps string and numeric identifiers as they are.
func toID(v any) (service.ID, bool) {
	switch t := v.(type) {
	case nil:
		return service.ID{}, false
	case string:
		return service.StringID(t), true
	case json.Number:
		return service.NumberID(t.String()), true
	case float64:
		return service.NumberID(strconv.FormatFloat(t, 'f', -1, 64)), true
	case int:
		return service.IntID(int64(t)), true
	case int64:
		return service.IntID(t), true
	}
	return service.StringID(toString(v)), true
}

// toCompletion applies the isCompleted policy: booleans and numbers pass
// through, numeric strings are parsed. ok is false for absent values and
// unparseable strings.
func toCompletion(v any) (service.Completion, bool) {
	switch t := v.(type) {
	case bool:
		return service.Bool(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return service.Number(0), false
		}
		return service.Number(f), true
	case float64:
		return service.Number(t), true
	case int:
		return service.Number(float64(t)), true
	case string:
		if f, ok := parseNumber(t); ok {
			return service.Number(f), true
		}
	}
	return service.Number(0), false
}
