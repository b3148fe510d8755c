package sweeperr

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/gridsweep/internal/results"
)

// TypeNotFoundError is returned when a composite parameter resolves to zero
// implementations.
type TypeNotFoundError struct {
	Abstract   string
	Path       string
	Namespaces []string
}

func (e *TypeNotFoundError) Error() string {
	msg := fmt.Sprintf("no implementations of type %q for parameter %s", e.Abstract, displayPath(e.Path))
	if len(e.Namespaces) > 0 {
		msg += fmt.Sprintf(" within namespaces [%s]", strings.Join(e.Namespaces, ", "))
	}
	return msg
}

// SchemaError reports malformed parameter metadata or a binding that does not
// fit the schema.
type SchemaError struct {
	Type   string
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema error in type %q: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("schema error in type %q at %s: %s", e.Type, e.Path, e.Reason)
}

// EmptySpaceError is returned when a leaf of the tree has no candidates.
type EmptySpaceError struct {
	Path string
	Kind string
}

func (e *EmptySpaceError) Error() string {
	return fmt.Sprintf("%s parameter %s has an empty candidate set", e.Kind, displayPath(e.Path))
}

// Failure kinds carried by ComputationError and failure data points.
const (
	KindFailed         = "failed"
	KindPanic          = "panic"
	KindTimeout        = "timeout"
	KindMaterialize    = "materialize"
	KindNotComputation = "not_computation"
)

// ComputationError describes the failure of a single combination.
type ComputationError struct {
	Kind   string
	Inputs []results.Field
	Err    error
}

func (e *ComputationError) Error() string {
	parts := make([]string, len(e.Inputs))
	for i, f := range e.Inputs {
		parts[i] = f.Name + "=" + f.Value.String()
	}
	return fmt.Sprintf("computation %s (%s): %v", e.Kind, strings.Join(parts, ", "), e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// CancellationSignal is returned when a sweep stops before exhausting its
// space. After is the number of combinations that completed.
type CancellationSignal struct {
	After int
	Cause error
}

func (e *CancellationSignal) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sweep cancelled after %d combinations: %v", e.After, e.Cause)
	}
	return fmt.Sprintf("sweep cancelled after %d combinations", e.After)
}

func (e *CancellationSignal) Unwrap() error {
	return e.Cause
}

func displayPath(p string) string {
	if p == "" {
		return "<root>"
	}
	return p
}
