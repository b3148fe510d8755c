package schema

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Factory builds one object from the arguments chosen for a combination.
type Factory func(args *Args) (any, error)

// Args carries the materialized arguments of one factory call. Scalars are
// held as cty values, composites as the objects their factories built and
// arrays as []any.
//
// Accessors never fail loudly: the first problem is remembered and reported
// by Err, so a factory can read every argument and check once.
type Args struct {
	owner  string
	names  []string
	values map[string]any
	err    error
}

// NewArgs returns an empty argument set for the named type.
func NewArgs(owner string) *Args {
	return &Args{owner: owner, values: make(map[string]any)}
}

// Set stores an argument. Names keep their first insertion order.
func (a *Args) Set(name string, v any) {
	if _, ok := a.values[name]; !ok {
		a.names = append(a.names, name)
	}
	a.values[name] = v
}

// Names lists argument names in declaration order.
func (a *Args) Names() []string {
	return append([]string(nil), a.names...)
}

// Err returns the first access error, if any.
func (a *Args) Err() error {
	return a.err
}

func (a *Args) fail(name, format string, args ...any) {
	if a.err == nil {
		a.err = fmt.Errorf("%s: argument %q: %s", a.owner, name, fmt.Sprintf(format, args...))
	}
}

func (a *Args) get(name string) (any, bool) {
	v, ok := a.values[name]
	if !ok {
		a.fail(name, "not set")
	}
	return v, ok
}

// Value returns a scalar argument as a cty value.
func (a *Args) Value(name string) cty.Value {
	v, _ := a.scalar(name)
	return v
}

func (a *Args) scalar(name string) (cty.Value, bool) {
	raw, ok := a.get(name)
	if !ok {
		return cty.NilVal, false
	}
	v, isVal := raw.(cty.Value)
	if !isVal {
		a.fail(name, "is %T, not a scalar", raw)
		return cty.NilVal, false
	}
	return v, true
}

func (a *Args) decode(name string, target any) {
	v, ok := a.scalar(name)
	if !ok {
		return
	}
	if err := gocty.FromCtyValue(v, target); err != nil {
		a.fail(name, "%v", err)
	}
}

func (a *Args) Number(name string) float64 {
	var f float64
	a.decode(name, &f)
	return f
}

func (a *Args) Int(name string) int64 {
	var i int64
	a.decode(name, &i)
	return i
}

func (a *Args) String(name string) string {
	var s string
	a.decode(name, &s)
	return s
}

func (a *Args) Bool(name string) bool {
	var b bool
	a.decode(name, &b)
	return b
}

// Object returns a composite argument.
func (a *Args) Object(name string) any {
	v, _ := a.get(name)
	return v
}

// List returns an array argument.
func (a *Args) List(name string) []any {
	raw, ok := a.get(name)
	if !ok {
		return nil
	}
	l, isList := raw.([]any)
	if !isList {
		a.fail(name, "is %T, not a list", raw)
		return nil
	}
	return l
}

// ObjectAs returns a composite argument converted to T.
func ObjectAs[T any](a *Args, name string) T {
	var zero T
	raw := a.Object(name)
	if raw == nil {
		return zero
	}
	v, ok := raw.(T)
	if !ok {
		a.fail(name, "is %T, not %T", raw, zero)
		return zero
	}
	return v
}

// ListAs returns an array argument with each element converted to T.
func ListAs[T any](a *Args, name string) []T {
	raw := a.List(name)
	out := make([]T, 0, len(raw))
	for i, item := range raw {
		v, ok := item.(T)
		if !ok {
			var zero T
			a.fail(name, "element %d is %T, not %T", i, item, zero)
			return nil
		}
		out = append(out, v)
	}
	return out
}
