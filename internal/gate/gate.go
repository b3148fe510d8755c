// Package gate provides the single-slot handshake a foreground controller
// uses to pace a sweep running in the background.
//
// The sweep calls Wait at every combination boundary. The controller calls
// Release to let exactly one more combination through, or Abort to stop the
// sweep at the next boundary.
package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/gridsweep/internal/sweeperr"
)

// ErrAborted is the cause carried by the cancellation signal Wait returns
// after Abort.
var ErrAborted = errors.New("sweep aborted")

// Gate is safe for use by one waiter and any number of releasers.
type Gate struct {
	permit  chan struct{}
	abort   chan struct{}
	once    sync.Once
	waiting atomic.Int32
}

// New creates a closed gate holding no permit.
func New() *Gate {
	return &Gate{
		permit: make(chan struct{}, 1),
		abort:  make(chan struct{}),
	}
}

// Wait blocks until a permit is available, the gate is aborted or ctx is
// done. An abort always wins over a stored permit.
func (g *Gate) Wait(ctx context.Context) error {
	if g.Aborted() {
		return &sweeperr.CancellationSignal{Cause: ErrAborted}
	}

	g.waiting.Add(1)
	defer g.waiting.Add(-1)

	select {
	case <-g.abort:
		return &sweeperr.CancellationSignal{Cause: ErrAborted}
	case <-ctx.Done():
		return &sweeperr.CancellationSignal{Cause: ctx.Err()}
	case <-g.permit:
		if g.Aborted() {
			return &sweeperr.CancellationSignal{Cause: ErrAborted}
		}
		return nil
	}
}

// Release stores one permit. At most one permit is held; releasing an
// already released gate is a no-op.
func (g *Gate) Release() {
	select {
	case g.permit <- struct{}{}:
	default:
	}
}

// Abort makes the pending and every later Wait return a cancellation
// signal. It is idempotent.
func (g *Gate) Abort() {
	g.once.Do(func() { close(g.abort) })
}

// Aborted reports whether Abort has been called.
func (g *Gate) Aborted() bool {
	select {
	case <-g.abort:
		return true
	default:
		return false
	}
}

// Waiting reports whether a caller is currently blocked in Wait.
func (g *Gate) Waiting() bool {
	return g.waiting.Load() > 0
}
