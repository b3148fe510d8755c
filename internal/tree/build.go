package tree

import (
	"context"
	"fmt"
	"math/big"
	"slices"

	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	"github.com/specialistvlad/gridsweep/internal/parampath"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/specialistvlad/gridsweep/internal/sweeperr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Tree is the root of a configuration space.
type Tree struct {
	Root *Node

	abstract string
	bindings Bindings
	index    map[string][]*Node
}

// RootType returns the abstract type the tree was built for.
func (t *Tree) RootType() string {
	return t.abstract
}

// Bindings returns a copy of the bindings the tree currently reflects.
func (t *Tree) Bindings() Bindings {
	return t.bindings.Clone()
}

// Cardinality returns the exact number of combinations in the space.
func (t *Tree) Cardinality() *big.Int {
	return t.Root.Cardinality()
}

// Nodes returns every node bound under the given template path. The same
// path can name several nodes when sibling implementations declare a
// parameter of the same name.
func (t *Tree) Nodes(path string) []*Node {
	return slices.Clone(t.index[path])
}

type builder struct {
	cat      *catalog.Catalog
	bindings Bindings
	index    map[string][]*Node
	used     map[string]bool
	// stack holds the implementations currently being expanded.
	stack []string
}

// Build resolves rootAbstract through the catalog and binds candidate sets
// recursively. It fails with *sweeperr.TypeNotFoundError,
// *sweeperr.SchemaError or *sweeperr.EmptySpaceError before returning a
// partially valid tree.
func Build(ctx context.Context, cat *catalog.Catalog, rootAbstract string, bindings Bindings) (*Tree, error) {
	logger := ctxlog.FromContext(ctx)

	b := &builder{
		cat:      cat,
		bindings: bindings.Clone(),
		index:    make(map[string][]*Node),
		used:     make(map[string]bool),
	}
	for _, key := range b.bindings.Keys() {
		if _, err := parampath.Parse(key); err != nil {
			return nil, &sweeperr.SchemaError{Type: rootAbstract, Path: key, Reason: err.Error()}
		}
	}

	rootParam := schema.Composite("", rootAbstract)
	root, err := b.composite(rootAbstract, parampath.Root(), rootParam)
	if err != nil {
		return nil, err
	}

	for _, key := range b.bindings.Keys() {
		if !b.used[key] {
			logger.Warn("Binding does not match any parameter in the tree.", "path", key)
		}
	}

	t := &Tree{Root: root, abstract: rootAbstract, bindings: b.bindings, index: b.index}
	logger.Debug("Configuration tree built.", "root", rootAbstract, "combinations", t.Cardinality().String())
	return t, nil
}

func (b *builder) node(owner string, path parampath.Address, p schema.Param) (*Node, error) {
	switch p.Kind {
	case schema.KindScalar:
		return b.scalar(owner, path, p)
	case schema.KindComposite:
		return b.composite(owner, path, p)
	case schema.KindArray:
		return b.array(owner, path, p)
	}
	return nil, &sweeperr.SchemaError{Type: owner, Path: path.String(), Reason: fmt.Sprintf("unknown parameter kind %s", p.Kind)}
}

func (b *builder) register(n *Node) *Node {
	key := n.Key()
	b.index[key] = append(b.index[key], n)
	return n
}

func (b *builder) scalar(owner string, path parampath.Address, p schema.Param) (*Node, error) {
	key := path.String()
	raw, bound := b.bindings.Candidates[key]
	if bound {
		b.used[key] = true
	} else {
		if len(p.Default) == 0 {
			return nil, &sweeperr.SchemaError{Type: owner, Path: key, Reason: "no candidates bound and no default declared"}
		}
		raw = p.Default
	}

	values, err := convertCandidates(owner, key, p.Type, raw)
	if err != nil {
		return nil, err
	}
	return b.register(&Node{Kind: schema.KindScalar, Param: p, Path: path, Candidates: values}), nil
}

func convertCandidates(owner, key string, typ cty.Type, raw []cty.Value) ([]cty.Value, error) {
	if len(raw) == 0 {
		return nil, &sweeperr.EmptySpaceError{Path: key, Kind: schema.KindScalar.String()}
	}
	values := make([]cty.Value, 0, len(raw))
	for i, v := range raw {
		if v.IsNull() || !v.IsWhollyKnown() {
			return nil, &sweeperr.SchemaError{Type: owner, Path: key, Reason: fmt.Sprintf("candidate #%d is null or unknown", i)}
		}
		converted, err := convert.Convert(v, typ)
		if err != nil {
			return nil, &sweeperr.SchemaError{Type: owner, Path: key, Reason: fmt.Sprintf("candidate #%d: %v", i, err)}
		}
		for _, prev := range values {
			if prev.RawEquals(converted) {
				return nil, &sweeperr.SchemaError{Type: owner, Path: key, Reason: fmt.Sprintf("duplicate candidate %#v", converted)}
			}
		}
		values = append(values, converted)
	}
	return values, nil
}

func (b *builder) composite(owner string, path parampath.Address, p schema.Param) (*Node, error) {
	key := path.String()
	resolved := b.cat.Resolve(p.Abstract, b.bindings.Namespaces)

	chosen := resolved
	if names, bound := b.bindings.Implementations[key]; bound {
		b.used[key] = true
		if len(names) == 0 {
			return nil, &sweeperr.EmptySpaceError{Path: key, Kind: schema.KindComposite.String()}
		}
		var err error
		if chosen, err = b.subset(owner, key, p.Abstract, resolved, names); err != nil {
			return nil, err
		}
	}
	if len(chosen) == 0 {
		return nil, &sweeperr.TypeNotFoundError{Abstract: p.Abstract, Path: key, Namespaces: slices.Clone(b.bindings.Namespaces)}
	}

	n := &Node{Kind: schema.KindComposite, Param: p, Path: path, Abstract: p.Abstract}
	for _, impl := range chosen {
		if path.IsRoot() && len(chosen) > 1 && slices.ContainsFunc(impl.Params, func(cp schema.Param) bool { return cp.Name == schema.ImplementationInput }) {
			return nil, &sweeperr.SchemaError{
				Type:   impl.Name,
				Path:   schema.ImplementationInput,
				Reason: fmt.Sprintf("parameter name %q is reserved when the root type has several implementations", schema.ImplementationInput),
			}
		}
		if slices.Contains(b.stack, impl.Name) {
			return nil, &sweeperr.SchemaError{Type: impl.Name, Path: key, Reason: "implementation contains itself"}
		}
		if err := schema.Validate(impl.Name, impl.Params); err != nil {
			return nil, err
		}

		b.stack = append(b.stack, impl.Name)
		opt := &Option{Impl: impl}
		for _, cp := range impl.Params {
			child, err := b.node(impl.Name, path.Child(cp.Name), cp)
			if err != nil {
				return nil, err
			}
			child.parent = n
			opt.Children = append(opt.Children, child)
		}
		b.stack = b.stack[:len(b.stack)-1]
		n.Options = append(n.Options, opt)
	}
	return b.register(n), nil
}

// subset keeps the resolved implementations named by the binding, in
// catalog order.
func (b *builder) subset(owner, key, abstract string, resolved []*catalog.Implementation, names []string) ([]*catalog.Implementation, error) {
	for _, name := range names {
		found := slices.ContainsFunc(resolved, func(impl *catalog.Implementation) bool { return impl.Name == name })
		if !found {
			return nil, &sweeperr.SchemaError{
				Type:   owner,
				Path:   key,
				Reason: fmt.Sprintf("implementation %q is not a known implementation of %q", name, abstract),
			}
		}
	}
	var out []*catalog.Implementation
	for _, impl := range resolved {
		if slices.Contains(names, impl.Name) {
			out = append(out, impl)
		}
	}
	return out, nil
}

func (b *builder) array(owner string, path parampath.Address, p schema.Param) (*Node, error) {
	key := path.String()
	lengths, bound := b.bindings.Lengths[key]
	if !bound {
		return nil, &sweeperr.SchemaError{Type: owner, Path: key, Reason: "no lengths bound for array parameter"}
	}
	b.used[key] = true
	if err := checkLengths(owner, key, lengths); err != nil {
		return nil, err
	}

	n := &Node{Kind: schema.KindArray, Param: p, Path: path, Lengths: slices.Clone(lengths)}
	elem, err := b.node(owner, path.Element(parampath.AnyIndex), *p.Element)
	if err != nil {
		return nil, err
	}
	elem.parent = n
	n.Element = elem
	return b.register(n), nil
}

func checkLengths(owner, key string, lengths []int) error {
	if len(lengths) == 0 {
		return &sweeperr.EmptySpaceError{Path: key, Kind: schema.KindArray.String()}
	}
	seen := make(map[int]bool, len(lengths))
	for _, l := range lengths {
		if l < 0 {
			return &sweeperr.SchemaError{Type: owner, Path: key, Reason: fmt.Sprintf("negative length %d", l)}
		}
		if seen[l] {
			return &sweeperr.SchemaError{Type: owner, Path: key, Reason: fmt.Sprintf("duplicate length %d", l)}
		}
		seen[l] = true
	}
	return nil
}
