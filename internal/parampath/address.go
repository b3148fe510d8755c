package parampath

import (
	"slices"
	"strconv"
	"strings"
)

// String serializes the Address into its canonical path string representation.
func (a Address) String() string {
	var sb strings.Builder
	for i, segment := range a.Path {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(segment.Name)
		switch segment.Index {
		case NoIndex:
		case AnyIndex:
			sb.WriteString("[]")
		default:
			sb.WriteRune('[')
			sb.WriteString(strconv.Itoa(segment.Index))
			sb.WriteRune(']')
		}
	}
	return sb.String()
}

// Equal reports whether both addresses name the same location.
func (a Address) Equal(other Address) bool {
	return slices.Equal(a.Path, other.Path)
}

// IsRoot reports whether the address is the tree root.
func (a Address) IsRoot() bool {
	return len(a.Path) == 0
}

// Child returns the address of a named parameter below a.
func (a Address) Child(name string) Address {
	path := make([]PathSegment, len(a.Path), len(a.Path)+1)
	copy(path, a.Path)
	return Address{Path: append(path, NewPathSegment(name))}
}

// Element returns the address of the index-th element of the array at a.
// Element of the root is undefined and returns the root unchanged.
func (a Address) Element(index int) Address {
	if a.IsRoot() {
		return a
	}
	path := slices.Clone(a.Path)
	path[len(path)-1].Index = index
	return Address{Path: path}
}

// Template replaces every concrete element index with the wildcard, giving
// the key under which bindings for this location are declared.
func (a Address) Template() Address {
	path := slices.Clone(a.Path)
	for i := range path {
		if path[i].Index >= 0 {
			path[i].Index = AnyIndex
		}
	}
	return Address{Path: path}
}

// Name returns the name of the last segment, or "" for the root.
func (a Address) Name() string {
	if a.IsRoot() {
		return ""
	}
	return a.Path[len(a.Path)-1].Name
}
