// Package dictutil holds helpers for the nested map[string]any trees that
// carry configuration between the parser, the resolver and the dumper.
package dictutil

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Copy returns a deep copy of m. Nested maps and slices are copied; other
// values are shared.
func Copy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CopyValue(v)
	}
	return out
}

// CopyValue deep copies maps and slices inside v.
func CopyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return Copy(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = CopyValue(e)
		}
		return out
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out
	default:
		return v
	}
}

// Merge overlays fragment onto a copy of existing and returns the result.
// Neither argument is modified.
//
// depth bounds how far the merge descends: at depth 1 every key of fragment
// replaces the existing value wholesale; at depth n a key whose existing and
// new values are both maps is merged at depth n-1. A depth of zero or less
// merges all the way down.
func Merge(existing, fragment map[string]any, depth int) map[string]any {
	out := Copy(existing)
	if out == nil {
		out = make(map[string]any, len(fragment))
	}
	for k, v := range fragment {
		oldMap, oldIsMap := out[k].(map[string]any)
		newMap, newIsMap := v.(map[string]any)
		if oldIsMap && newIsMap && depth != 1 {
			out[k] = Merge(oldMap, newMap, depth-1)
			continue
		}
		out[k] = CopyValue(v)
	}
	return out
}

// Get walks path through nested maps.
func Get(m map[string]any, path []string) (any, bool) {
	var cur any = m
	for _, seg := range path {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores v at path, creating intermediate maps as needed. A non-map value
// sitting where an intermediate map is needed is an error.
func Set(m map[string]any, path []string, v any) error {
	if len(path) == 0 {
		return fmt.Errorf("cannot set a value at the root")
	}
	node := m
	for i, seg := range path[:len(path)-1] {
		next, ok := node[seg]
		if !ok || next == nil {
			child := make(map[string]any)
			node[seg] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot set %v: %v is not a table", path, path[:i+1])
		}
		node = child
	}
	node[path[len(path)-1]] = v
	return nil
}

// Keys returns the keys of m in sorted order.
func Keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Normalize rewrites decoder output into the canonical shapes used across the
// module: every integer becomes int, every float becomes float64, every
// slice becomes []any and every string-keyed map becomes map[string]any.
// json.Number values become int when integral.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case string, bool, int, float64:
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		f, _ := x.Float64()
		return f
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint())
	case reflect.Float32:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	}
	return v
}

// Equal compares two values after normalizing both.
func Equal(a, b any) bool {
	return reflect.DeepEqual(Normalize(a), Normalize(b))
}

// IsEmpty reports whether v is nil or an empty list or table.
func IsEmpty(v any) bool {
	switch x := Normalize(v).(type) {
	case nil:
		return true
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}
