package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/pipeargs/internal/dictutil"
)

type coercer func(raw any) (any, error)

// coercers maps type names to conversions. The empty name means "str".
var coercers = map[string]coercer{
	"":      toStr,
	"str":   toStr,
	"path":  toStr,
	"int":   toInt,
	"float": toFloat,
	"bool":  toBool,
	"upper": func(raw any) (any, error) { return mapStr(raw, strings.ToUpper) },
	"lower": func(raw any) (any, error) { return mapStr(raw, strings.ToLower) },
	"auto":  toAuto,
	"json":  toJSON,
}

// KnownType reports whether name is a registered coercion type.
func KnownType(name string) bool {
	_, ok := coercers[name]
	return ok
}

// CoerceElem converts one value (a command-line string or a decoded file
// value) to the option's type and checks it against the choices. For list
// options it converts a single element.
func (f *Flag) CoerceElem(raw any) (any, error) {
	if f.Kind == KindFlag {
		if s, ok := raw.(string); ok && s == "" {
			return true, nil
		}
		b, ok := dictutil.AsBool(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a boolean, got %v", ErrInvalidValue, f.Dest.Flag(), raw)
		}
		return b, nil
	}

	v, err := coercers[f.Type](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, f.Dest.Flag(), err)
	}
	if err := f.checkChoice(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Coerce converts a whole value for the option. Lists are converted element
// by element, and rows of appending options row by row. Tables given to
// dict and namespace options are normalized; strings are decoded as JSON.
func (f *Flag) Coerce(raw any) (any, error) {
	switch f.Kind {
	case KindList:
		items, isList := dictutil.Normalize(raw).([]any)
		if !isList {
			items = []any{raw}
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			if row, ok := item.([]any); ok && f.Append {
				conv := make([]any, 0, len(row))
				for _, e := range row {
					v, err := f.CoerceElem(e)
					if err != nil {
						return nil, err
					}
					conv = append(conv, v)
				}
				out = append(out, conv)
				continue
			}
			v, err := f.CoerceElem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case KindDict, KindNamespace:
		v, err := toJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, f.Dest.Flag(), err)
		}
		if _, ok := v.(map[string]any); !ok && f.Kind == KindNamespace {
			return nil, fmt.Errorf("%w: %s expects a JSON object", ErrInvalidValue, f.Dest.Flag())
		}
		return v, nil
	}
	return f.CoerceElem(raw)
}

func (f *Flag) checkChoice(v any) error {
	if len(f.Choices) == 0 || v == nil {
		return nil
	}
	s, _ := dictutil.AsString(v)
	for _, c := range f.Choices {
		if c == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %q is not one of %s", ErrInvalidValue, f.Dest.Flag(), s, strings.Join(f.Choices, ", "))
}

func toStr(raw any) (any, error) {
	s, ok := dictutil.AsString(raw)
	if !ok {
		return nil, fmt.Errorf("expected a string, got %v", raw)
	}
	return s, nil
}

func mapStr(raw any, fn func(string) string) (any, error) {
	s, err := toStr(raw)
	if err != nil {
		return nil, err
	}
	return fn(s.(string)), nil
}

// toCty lifts a scalar into cty so conversions follow cty's rules.
func toCty(raw any) (cty.Value, error) {
	switch x := dictutil.Normalize(raw).(type) {
	case string:
		return cty.StringVal(strings.TrimSpace(x)), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	}
	return cty.NilVal, fmt.Errorf("expected a scalar, got %v", raw)
}

func toInt(raw any) (any, error) {
	val, err := toCty(raw)
	if err != nil {
		return nil, err
	}
	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return nil, fmt.Errorf("invalid int value: %v", raw)
	}
	var i int
	if err := gocty.FromCtyValue(num, &i); err != nil {
		return nil, fmt.Errorf("invalid int value: %v", raw)
	}
	return i, nil
}

func toFloat(raw any) (any, error) {
	val, err := toCty(raw)
	if err != nil {
		return nil, err
	}
	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return nil, fmt.Errorf("invalid float value: %v", raw)
	}
	var f float64
	if err := gocty.FromCtyValue(num, &f); err != nil {
		return nil, fmt.Errorf("invalid float value: %v", raw)
	}
	return f, nil
}

func toBool(raw any) (any, error) {
	if s, ok := raw.(string); ok {
		raw = strings.ToLower(strings.TrimSpace(s))
	}
	val, err := toCty(raw)
	if err != nil {
		return nil, err
	}
	b, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return nil, fmt.Errorf("invalid bool value: %v", raw)
	}
	return b.True(), nil
}

// toAuto guesses the type of a command-line string: booleans, integers,
// floats and JSON lists or objects are decoded, anything else stays a string.
func toAuto(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return dictutil.Normalize(raw), nil
	}
	t := strings.TrimSpace(s)
	switch strings.ToLower(t) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if i, err := strconv.Atoi(t); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f, nil
	}
	if strings.HasPrefix(t, "[") || strings.HasPrefix(t, "{") {
		if v, err := decodeJSON(t); err == nil {
			return v, nil
		}
	}
	return s, nil
}

func toJSON(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return dictutil.Normalize(raw), nil
	}
	v, err := decodeJSON(s)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON value %q: %v", s, err)
	}
	return v, nil
}

// decodeJSON decodes s keeping integers integral.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return dictutil.Normalize(v), nil
}

// inferType picks a coercion type from a default value.
func inferType(v any) string {
	switch x := dictutil.Normalize(v).(type) {
	case bool:
		return "bool"
	case int:
		return "int"
	case float64:
		return "float"
	case map[string]any:
		return "json"
	case []any:
		typ := ""
		for _, e := range x {
			et := inferType(e)
			if typ != "" && et != typ {
				return "auto"
			}
			typ = et
		}
		if typ == "" {
			return "str"
		}
		return typ
	}
	return "str"
}
