package schema

import (
	"fmt"

	"github.com/specialistvlad/gridsweep/internal/sweeperr"
	"github.com/zclconf/go-cty/cty"
)

// Kind tags the variant of a parameter.
type Kind uint8

const (
	KindScalar Kind = iota + 1
	KindComposite
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindComposite:
		return "composite"
	case KindArray:
		return "array"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ImplementationInput is the input name under which a sweep records the
// root implementation when the root type has several. Root parameters may
// not use it in that case.
const ImplementationInput = "type"

// Param describes one constructor argument.
//
// A scalar carries its primitive Type and optional Default candidates. A
// composite names the Abstract type its implementations satisfy. An array
// describes its homogeneous elements with Element, whose Name is ignored.
type Param struct {
	Name        string
	Kind        Kind
	Type        cty.Type
	Abstract    string
	Element     *Param
	Default     []cty.Value
	Description string
}

// Scalar declares a primitive parameter. Defaults, when given, are the
// candidates used if the sweep binds none.
func Scalar(name string, typ cty.Type, defaults ...cty.Value) Param {
	return Param{Name: name, Kind: KindScalar, Type: typ, Default: defaults}
}

// Composite declares a parameter filled by an implementation of abstract.
func Composite(name, abstract string) Param {
	return Param{Name: name, Kind: KindComposite, Abstract: abstract}
}

// Array declares a variable-length list of homogeneous elements.
func Array(name string, element Param) Param {
	return Param{Name: name, Kind: KindArray, Element: &element}
}

// Describe returns a copy of p with the description set.
func (p Param) Describe(text string) Param {
	p.Description = text
	return p
}

// TypeString renders the parameter type for listings, e.g. `number`,
// `Engine` or `[]Wheel`.
func (p Param) TypeString() string {
	switch p.Kind {
	case KindScalar:
		return p.Type.FriendlyName()
	case KindComposite:
		return p.Abstract
	case KindArray:
		if p.Element == nil {
			return "[]?"
		}
		return "[]" + p.Element.TypeString()
	}
	return "?"
}

// IsPrimitive reports whether t is a scalar type a parameter may enumerate.
func IsPrimitive(t cty.Type) bool {
	return t == cty.Number || t == cty.String || t == cty.Bool
}

// Validate checks the parameter table of owner. The first problem found is
// returned as a *sweeperr.SchemaError.
func Validate(owner string, params []Param) error {
	seen := make(map[string]struct{}, len(params))
	for i, p := range params {
		if p.Name == "" {
			return &sweeperr.SchemaError{Type: owner, Reason: fmt.Sprintf("parameter #%d has no name", i)}
		}
		if _, dup := seen[p.Name]; dup {
			return &sweeperr.SchemaError{Type: owner, Path: p.Name, Reason: "duplicate parameter name"}
		}
		seen[p.Name] = struct{}{}
		if err := validateParam(owner, p.Name, p); err != nil {
			return err
		}
	}
	return nil
}

func validateParam(owner, path string, p Param) error {
	switch p.Kind {
	case KindScalar:
		if !IsPrimitive(p.Type) {
			return &sweeperr.SchemaError{Type: owner, Path: path, Reason: fmt.Sprintf("scalar type %s is not primitive", p.Type.FriendlyName())}
		}
		for _, d := range p.Default {
			if d.IsNull() || !d.Type().Equals(p.Type) {
				return &sweeperr.SchemaError{Type: owner, Path: path, Reason: fmt.Sprintf("default %#v does not match type %s", d, p.Type.FriendlyName())}
			}
		}
	case KindComposite:
		if p.Abstract == "" {
			return &sweeperr.SchemaError{Type: owner, Path: path, Reason: "composite parameter has no abstract type"}
		}
	case KindArray:
		if p.Element == nil {
			return &sweeperr.SchemaError{Type: owner, Path: path, Reason: "array parameter has no element descriptor"}
		}
		if p.Element.Kind == KindArray {
			return &sweeperr.SchemaError{Type: owner, Path: path, Reason: "nested arrays are not supported"}
		}
		return validateParam(owner, path+"[]", *p.Element)
	default:
		return &sweeperr.SchemaError{Type: owner, Path: path, Reason: fmt.Sprintf("unknown parameter kind %s", p.Kind)}
	}
	return nil
}
