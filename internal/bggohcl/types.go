package bggohcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// ParamFromTypeExpr converts the `type` attribute of a param block into a
// parameter descriptor. Accepted forms are the keywords `string`, `number`
// and `bool`, a bare abstract type name such as `Engine`, and `list(T)`
// where T is any of the former.
func ParamFromTypeExpr(name string, expr hcl.Expression) (schema.Param, hcl.Diagnostics) {
	if call, diags := hcl.ExprCall(expr); !diags.HasErrors() {
		if call.Name != "list" || len(call.Arguments) != 1 {
			return schema.Param{}, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid parameter type",
				Detail:   fmt.Sprintf("Only list(T) is supported as a type constructor, got %s with %d argument(s).", call.Name, len(call.Arguments)),
				Subject:  expr.Range().Ptr(),
			}}
		}
		elem, elemDiags := ParamFromTypeExpr("", call.Arguments[0])
		if elemDiags.HasErrors() {
			return schema.Param{}, elemDiags
		}
		if elem.Kind == schema.KindArray {
			return schema.Param{}, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid parameter type",
				Detail:   "Lists of lists are not supported.",
				Subject:  expr.Range().Ptr(),
			}}
		}
		return schema.Array(name, elem), nil
	}

	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() || len(traversal) != 1 {
		return schema.Param{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid parameter type",
			Detail:   "The 'type' attribute must be a type keyword like 'number', an abstract type name, or list(T).",
			Subject:  expr.Range().Ptr(),
		}}
	}

	if typ, ok := PrimitiveType(traversal.RootName()); ok {
		return schema.Scalar(name, typ), nil
	}
	return schema.Composite(name, traversal.RootName()), nil
}

// PrimitiveType maps a scalar type keyword to its cty type.
func PrimitiveType(keyword string) (cty.Type, bool) {
	switch keyword {
	case "string":
		return cty.String, true
	case "number":
		return cty.Number, true
	case "bool":
		return cty.Bool, true
	}
	return cty.NilType, false
}
