package hcl_adapter

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ToNative converts a cty value into plain Go values: strings, int for
// integral numbers, float64, bool, []any and map[string]any. Null and
// unknown values become nil.
func ToNative(v cty.Value) (any, error) {
	if v.Type() == cty.NilType || v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil
	}
	return nil, fmt.Errorf("unsupported cty type for conversion: %s", ty.FriendlyName())
}

// toMap converts an object-valued attribute. A missing attribute yields nil.
func toMap(v cty.Value, what string) (map[string]any, error) {
	native, err := ToNative(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if native == nil {
		return nil, nil
	}
	m, ok := native.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object, got %s", what, v.Type().FriendlyName())
	}
	return m, nil
}
