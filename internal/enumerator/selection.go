package enumerator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/specialistvlad/gridsweep/internal/tree"
)

// Selection is an immutable choice at one node together with the selections
// of the nodes below it. The root selection of a tree identifies exactly one
// combination. Selections are shared between combinations through the
// memoization cache and must not be modified.
type Selection struct {
	Node *tree.Node
	// Choice indexes the node's candidates, options or lengths.
	Choice   int
	Children []*Selection
}

// Option returns the chosen implementation of a composite selection.
func (s *Selection) Option() *tree.Option {
	return s.Node.Options[s.Choice]
}

// Length returns the chosen length of an array selection.
func (s *Selection) Length() int {
	return s.Node.Lengths[s.Choice]
}

// Key renders the selection as a compact string of choice indices, e.g.
// `0(1,0)`. Two selections of the same tree are equal exactly when their
// keys are equal.
func (s *Selection) Key() string {
	var sb strings.Builder
	s.writeKey(&sb)
	return sb.String()
}

func (s *Selection) writeKey(sb *strings.Builder) {
	sb.WriteString(strconv.Itoa(s.Choice))
	if len(s.Children) == 0 {
		return
	}
	sb.WriteByte('(')
	for i, c := range s.Children {
		if i > 0 {
			sb.WriteByte(',')
		}
		c.writeKey(sb)
	}
	sb.WriteByte(')')
}

func (s *Selection) String() string {
	switch s.Node.Kind {
	case schema.KindScalar:
		return fmt.Sprintf("%s=%#v", s.Node.Key(), s.Node.Candidates[s.Choice])
	case schema.KindComposite:
		return fmt.Sprintf("%s=%s", s.Node.Key(), s.Option().Impl.Name)
	case schema.KindArray:
		return fmt.Sprintf("%s=len(%d)", s.Node.Key(), s.Length())
	}
	return s.Key()
}
