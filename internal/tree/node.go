package tree

import (
	"math/big"

	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/parampath"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Node is one parameter position. Which fields are meaningful depends on
// Kind. Nodes must not be modified directly; use Tree.Rebind.
type Node struct {
	Kind  schema.Kind
	Param schema.Param
	// Path is the template address of the node; array elements carry the
	// `[]` wildcard.
	Path parampath.Address

	// Scalar.
	Candidates []cty.Value

	// Composite.
	Abstract string
	Options  []*Option

	// Array.
	Element *Node
	Lengths []int

	parent     *Node
	generation uint64
}

// Option is one implementation a composite node may take.
type Option struct {
	Impl     *catalog.Implementation
	Children []*Node
}

// Key returns the binding key of the node.
func (n *Node) Key() string {
	return n.Path.String()
}

// Parent returns the enclosing node, nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Generation changes every time the candidate set of the node or of any node
// below it is rebound. Caches derived from the node compare generations.
func (n *Node) Generation() uint64 {
	return n.generation
}

// Choices returns the number of local choices at this node.
func (n *Node) Choices() int {
	switch n.Kind {
	case schema.KindScalar:
		return len(n.Candidates)
	case schema.KindComposite:
		return len(n.Options)
	case schema.KindArray:
		return len(n.Lengths)
	}
	return 0
}

// Cardinality returns the number of distinct combinations below and
// including this node.
func (n *Node) Cardinality() *big.Int {
	switch n.Kind {
	case schema.KindScalar:
		return big.NewInt(int64(len(n.Candidates)))
	case schema.KindComposite:
		total := new(big.Int)
		for _, opt := range n.Options {
			total.Add(total, product(opt.Children))
		}
		return total
	case schema.KindArray:
		total := new(big.Int)
		elem := n.Element.Cardinality()
		for _, l := range n.Lengths {
			total.Add(total, new(big.Int).Exp(elem, big.NewInt(int64(l)), nil))
		}
		return total
	}
	return new(big.Int)
}

func product(nodes []*Node) *big.Int {
	p := big.NewInt(1)
	for _, c := range nodes {
		p.Mul(p, c.Cardinality())
	}
	return p
}

// Walk visits n and every node below it depth-first in declaration order.
// Returning false from fn skips the node's descendants.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	switch n.Kind {
	case schema.KindComposite:
		for _, opt := range n.Options {
			for _, c := range opt.Children {
				c.Walk(fn)
			}
		}
	case schema.KindArray:
		n.Element.Walk(fn)
	}
}

func (n *Node) touch() {
	for cur := n; cur != nil; cur = cur.parent {
		cur.generation++
	}
}
