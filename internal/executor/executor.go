// Package executor drives a computation over every combination of a
// configuration tree.
//
// The root object of each materialized instance must implement Computation.
// A computation records its own data points through the Sink it is given.
// Anything that goes wrong for one combination is recorded as a failure data
// point carrying that combination's inputs, and the sweep moves on.
package executor

import (
	"context"
	"math/big"
	"time"

	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/enumerator"
	"github.com/specialistvlad/gridsweep/internal/gate"
	"github.com/specialistvlad/gridsweep/internal/metrics"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/tree"
)

// Computation is the contract of a sweep's root objects.
type Computation interface {
	Run(ctx context.Context, sink *results.Sink, d display.Display) error
}

// ComputationFunc adapts a function to Computation.
type ComputationFunc func(ctx context.Context, sink *results.Sink, d display.Display) error

func (f ComputationFunc) Run(ctx context.Context, sink *results.Sink, d display.Display) error {
	return f(ctx, sink, d)
}

// Progress describes one finished combination.
type Progress struct {
	Index     int
	Total     *big.Int
	Inputs    []results.Field
	Failed    bool
	ErrorKind string
	Elapsed   time.Duration
}

// Loop runs one sweep. It is not safe for concurrent use.
type Loop struct {
	enum      *enumerator.Enumerator
	collector *results.Collector
	display   display.Display
	timeout   time.Duration
	metrics   *metrics.Metrics
	observer  func(Progress)

	gate       *gate.Gate
	cacheLimit *int
	total      *big.Int
	started    time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithDisplay sets the presentation collaborator. The default is display.Nop.
func WithDisplay(d display.Display) Option {
	return func(l *Loop) { l.display = d }
}

// WithTimeout bounds every computation call. Expiry is recorded as a
// failure of kind timeout. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Loop) { l.timeout = d }
}

// WithMetrics instruments the loop.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loop) { l.metrics = m }
}

// WithGate paces the sweep through g.
func WithGate(g *gate.Gate) Option {
	return func(l *Loop) { l.gate = g }
}

// WithObserver receives progress after every combination, on the sweep's
// goroutine.
func WithObserver(fn func(Progress)) Option {
	return func(l *Loop) { l.observer = fn }
}

// WithCacheLimit forwards a memoization bound to the enumerator.
func WithCacheLimit(n int) Option {
	return func(l *Loop) { l.cacheLimit = &n }
}

// New creates a loop over t appending to collector.
func New(t *tree.Tree, collector *results.Collector, opts ...Option) *Loop {
	l := &Loop{collector: collector, display: display.Nop{}}
	for _, opt := range opts {
		opt(l)
	}

	var enumOpts []enumerator.Option
	if l.gate != nil {
		enumOpts = append(enumOpts, enumerator.WithGate(l.gate))
	}
	if l.cacheLimit != nil {
		enumOpts = append(enumOpts, enumerator.WithCacheLimit(*l.cacheLimit))
	}
	l.enum = enumerator.New(t, &hooks{loop: l}, enumOpts...)
	l.total = t.Cardinality()
	return l
}

// Enumerator exposes the underlying enumerator, e.g. to clear its caches.
func (l *Loop) Enumerator() *enumerator.Enumerator {
	return l.enum
}

// Collector returns the collector currently being filled.
func (l *Loop) Collector() *results.Collector {
	return l.collector
}

// Run executes every combination and then hands a read-only view of the
// results to the display. The collector is returned in its final state
// together with a *sweeperr.CancellationSignal when the sweep stopped early.
func (l *Loop) Run(ctx context.Context) (*results.Collector, error) {
	runErr := l.enum.Run(ctx)
	if err := l.display.Show(ctx, l.collector.View()); err != nil && runErr == nil {
		return l.collector, err
	}
	return l.collector, runErr
}
