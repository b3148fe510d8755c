package tree

import (
	"maps"
	"slices"

	"github.com/zclconf/go-cty/cty"
)

// Bindings supplies the candidate sets of a sweep.
type Bindings struct {
	// Namespaces restricts implementation resolution to names with one of
	// these prefixes. Empty means no restriction.
	Namespaces []string
	// Candidates maps scalar template paths to their candidate values.
	Candidates map[string][]cty.Value
	// Implementations maps composite template paths to the allowed subset of
	// implementation names. Unbound composites use every implementation.
	Implementations map[string][]string
	// Lengths maps array template paths to their candidate lengths.
	Lengths map[string][]int
}

// Clone returns a deep copy of b.
func (b Bindings) Clone() Bindings {
	out := Bindings{
		Namespaces:      slices.Clone(b.Namespaces),
		Candidates:      make(map[string][]cty.Value, len(b.Candidates)),
		Implementations: make(map[string][]string, len(b.Implementations)),
		Lengths:         make(map[string][]int, len(b.Lengths)),
	}
	for k, v := range b.Candidates {
		out.Candidates[k] = slices.Clone(v)
	}
	for k, v := range b.Implementations {
		out.Implementations[k] = slices.Clone(v)
	}
	for k, v := range b.Lengths {
		out.Lengths[k] = slices.Clone(v)
	}
	return out
}

// Keys returns every bound path, sorted.
func (b Bindings) Keys() []string {
	keys := make(map[string]struct{})
	for k := range b.Candidates {
		keys[k] = struct{}{}
	}
	for k := range b.Implementations {
		keys[k] = struct{}{}
	}
	for k := range b.Lengths {
		keys[k] = struct{}{}
	}
	return slices.Sorted(maps.Keys(keys))
}
