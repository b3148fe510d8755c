package enumerator

import (
	"fmt"
	"runtime/debug"

	"github.com/specialistvlad/gridsweep/internal/parampath"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/schema"
)

// RootTypeField names the input that records the root implementation when
// the root type has more than one.
const RootTypeField = schema.ImplementationInput

// Inputs flattens a selection into named input properties in traversal
// order. Scalars are recorded by concrete path (`wheels[1].pressure`),
// composites by implementation name and arrays by length.
func Inputs(s *Selection) []results.Field {
	var out []results.Field
	if len(s.Node.Options) > 1 {
		out = append(out, results.F(RootTypeField, results.String(s.Option().Impl.Name)))
	}
	return appendInputs(out, parampath.Root(), s, true)
}

func appendInputs(out []results.Field, at parampath.Address, s *Selection, root bool) []results.Field {
	switch s.Node.Kind {
	case schema.KindScalar:
		v, err := results.FromCty(s.Node.Candidates[s.Choice])
		if err != nil {
			v = results.String(s.Node.Candidates[s.Choice].GoString())
		}
		out = append(out, results.F(at.String(), v))
	case schema.KindComposite:
		opt := s.Option()
		if !root {
			out = append(out, results.F(at.String(), results.String(opt.Impl.Name)))
		}
		for i, c := range s.Children {
			out = appendInputs(out, at.Child(opt.Children[i].Param.Name), c, false)
		}
	case schema.KindArray:
		out = append(out, results.F(at.String(), results.Int(int64(s.Length()))))
		for i, c := range s.Children {
			out = appendInputs(out, at.Element(i), c, false)
		}
	}
	return out
}

// Materialize builds the object graph of a selection by calling the
// factories bottom-up. A factory panic is returned as an error.
func Materialize(s *Selection) (obj any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("factory panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return materialize(parampath.Root(), s)
}

func materialize(at parampath.Address, s *Selection) (any, error) {
	switch s.Node.Kind {
	case schema.KindScalar:
		return s.Node.Candidates[s.Choice], nil
	case schema.KindComposite:
		opt := s.Option()
		args := schema.NewArgs(opt.Impl.Name)
		for i, c := range s.Children {
			name := opt.Children[i].Param.Name
			v, err := materialize(at.Child(name), c)
			if err != nil {
				return nil, err
			}
			args.Set(name, v)
		}
		obj, err := opt.Impl.Factory(args)
		if err == nil {
			err = args.Err()
		}
		if err != nil {
			return nil, fmt.Errorf("build %s at %s: %w", opt.Impl.Name, displayPath(at), err)
		}
		return obj, nil
	case schema.KindArray:
		list := make([]any, len(s.Children))
		for i, c := range s.Children {
			v, err := materialize(at.Element(i), c)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	}
	return nil, fmt.Errorf("unknown node kind %s at %s", s.Node.Kind, displayPath(at))
}

func displayPath(a parampath.Address) string {
	if a.IsRoot() {
		return "<root>"
	}
	return a.String()
}
