// Package display presents sweep progress and results.
//
// A Display never influences a sweep. Computations may send it notes while
// they run; once the sweep completes or is cancelled it receives a read-only
// view of the collected data points.
package display

import (
	"context"

	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	"github.com/specialistvlad/gridsweep/internal/results"
)

// Display is the presentation collaborator of a sweep.
type Display interface {
	// Note reports a message from a running computation.
	Note(ctx context.Context, msg string, args ...any)
	// Show presents the final results.
	Show(ctx context.Context, view results.View) error
}

// Nop discards notes and results.
type Nop struct{}

func (Nop) Note(context.Context, string, ...any)     {}
func (Nop) Show(context.Context, results.View) error { return nil }

// Log sends notes and a result summary to the context logger.
type Log struct{}

func (Log) Note(ctx context.Context, msg string, args ...any) {
	ctxlog.FromContext(ctx).Info(msg, args...)
}

func (Log) Show(ctx context.Context, view results.View) error {
	ctxlog.FromContext(ctx).Info("Sweep results.", "points", view.Len(), "failures", view.Failures())
	return nil
}
