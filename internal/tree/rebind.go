package tree

import (
	"context"
	"slices"

	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/specialistvlad/gridsweep/internal/sweeperr"
	"github.com/zclconf/go-cty/cty"
)

// Rebind replaces the candidates of every scalar node under path. The
// generation of each affected node and all of its ancestors changes, which
// invalidates caches built over them. Rebind must not run concurrently with
// an enumeration of the same tree.
func (t *Tree) Rebind(ctx context.Context, path string, candidates []cty.Value) error {
	nodes := t.nodesOfKind(path, schema.KindScalar)
	if len(nodes) == 0 {
		return &sweeperr.SchemaError{Type: t.abstract, Path: path, Reason: "no scalar parameter at this path"}
	}

	converted := make([][]cty.Value, len(nodes))
	for i, n := range nodes {
		values, err := convertCandidates(t.abstract, path, n.Param.Type, candidates)
		if err != nil {
			return err
		}
		converted[i] = values
	}
	for i, n := range nodes {
		n.Candidates = converted[i]
		n.touch()
	}
	t.bindings.Candidates[path] = slices.Clone(candidates)

	ctxlog.FromContext(ctx).Debug("Rebound scalar candidates.", "path", path, "candidates", len(candidates))
	return nil
}

// RebindLengths replaces the candidate lengths of every array node under path.
func (t *Tree) RebindLengths(ctx context.Context, path string, lengths []int) error {
	nodes := t.nodesOfKind(path, schema.KindArray)
	if len(nodes) == 0 {
		return &sweeperr.SchemaError{Type: t.abstract, Path: path, Reason: "no array parameter at this path"}
	}
	if err := checkLengths(t.abstract, path, lengths); err != nil {
		return err
	}
	for _, n := range nodes {
		n.Lengths = slices.Clone(lengths)
		n.touch()
	}
	t.bindings.Lengths[path] = slices.Clone(lengths)

	ctxlog.FromContext(ctx).Debug("Rebound array lengths.", "path", path, "lengths", lengths)
	return nil
}

func (t *Tree) nodesOfKind(path string, kind schema.Kind) []*Node {
	var out []*Node
	for _, n := range t.index[path] {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
