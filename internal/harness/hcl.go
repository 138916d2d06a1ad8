package harness

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// ParseHCL decodes and validates an HCL scenario:
//
//	name = "loop"
//	graph { params = ["Is"] }
//	step "create" {
//	  as    = "c"
//	  kind  = "Const"
//	  attrs = { tarval = "Is:1" }
//	  expect { mode = "Is" }
//	}
func ParseHCL(data []byte, filename string) (*Scenario, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var sc Scenario
	if diags := gohcl.DecodeBody(file.Body, nil, &sc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	for i := range sc.Steps {
		s := &sc.Steps[i]
		if s.AttrsExpr == nil {
			continue
		}
		val, diags := s.AttrsExpr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("step %d attrs: %w", i, diags)
		}
		s.AttrsExpr = nil
		if val.IsNull() {
			continue
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("step %d attrs: %w", i, err)
		}
		attrs, ok := native.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("step %d attrs: want object, got %s", i, val.Type().FriendlyName())
		}
		s.Attrs = attrs
	}

	if err := Validate(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// ctyToNative converts v into the plain values attribute decoding accepts.
// Whole numbers become int64 so that large constants keep their precision.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if n, acc := bf.Int64(); acc == big.Exact {
				return n, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
