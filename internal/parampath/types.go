package parampath

const (
	// NoIndex marks a segment that does not address an array element.
	NoIndex = -1
	// AnyIndex marks the element wildcard `[]` used by binding templates.
	AnyIndex = -2
)

// PathSegment represents a single component of a path, e.g. `name[index]`.
type PathSegment struct {
	Name  string
	Index int
}

// NewPathSegment creates a new path segment without an index.
func NewPathSegment(name string) PathSegment {
	return PathSegment{Name: name, Index: NoIndex}
}

// NewPathSegmentWithIndex creates a new path segment that includes an index.
func NewPathSegmentWithIndex(name string, index int) PathSegment {
	return PathSegment{Name: name, Index: index}
}

// HasIndex returns true if the segment addresses an array element, either
// concretely or through the wildcard.
func (ps PathSegment) HasIndex() bool {
	return ps.Index != NoIndex
}

// Address is the structured location of a parameter. The zero value is the
// root. Addresses are immutable: every derivation returns a fresh copy.
type Address struct {
	Path []PathSegment
}

// Root returns the address of the tree root.
func Root() Address {
	return Address{}
}
