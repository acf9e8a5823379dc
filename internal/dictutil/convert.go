package dictutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AsInt converts decoded numbers and numeric strings to int.
func AsInt(v any) (int, bool) {
	switch x := Normalize(v).(type) {
	case int:
		return x, true
	case float64:
		if x == math.Trunc(x) {
			return int(x), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// AsString converts scalars to their string form. Lists and tables are rejected.
func AsString(v any) (string, bool) {
	switch x := Normalize(v).(type) {
	case nil, []any, map[string]any:
		return "", false
	case string:
		return x, true
	default:
		return fmt.Sprint(x), true
	}
}

// AsBool converts booleans and boolean-looking strings.
func AsBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	}
	return false, false
}

// AsMap returns v as a table, treating nil as an empty table.
func AsMap(v any) (map[string]any, bool) {
	switch x := Normalize(v).(type) {
	case nil:
		return map[string]any{}, true
	case map[string]any:
		return x, true
	}
	return nil, false
}
