// Package session wires one sweep together: it builds the configuration
// tree, checks the size of the space, tags the sweep with an identifier and
// runs the execution loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/executor"
	"github.com/specialistvlad/gridsweep/internal/gate"
	"github.com/specialistvlad/gridsweep/internal/metrics"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/tree"
)

// DefaultMaxCombinations is the size limit applied when none is configured.
const DefaultMaxCombinations = 1_000_000

// ErrSpaceTooLarge is returned when a space exceeds the combination limit.
var ErrSpaceTooLarge = errors.New("configuration space too large")

type options struct {
	id              string
	display         display.Display
	gate            *gate.Gate
	timeout         time.Duration
	metrics         *metrics.Metrics
	observer        func(executor.Progress)
	maxCombinations int64
	cacheLimit      *int
}

// Option configures a sweep.
type Option func(*options)

// WithID overrides the generated sweep identifier.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// WithDisplay sets the display that receives notes and the final results.
func WithDisplay(d display.Display) Option {
	return func(o *options) { o.display = d }
}

// WithGate paces the sweep through g.
func WithGate(g *gate.Gate) Option {
	return func(o *options) { o.gate = g }
}

// WithTimeout bounds each computation call.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithMetrics instruments the sweep.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithObserver receives progress after every combination.
func WithObserver(fn func(executor.Progress)) Option {
	return func(o *options) { o.observer = fn }
}

// WithMaxCombinations rejects spaces larger than n before anything runs.
// Zero or a negative n removes the limit.
func WithMaxCombinations(n int64) Option {
	return func(o *options) { o.maxCombinations = n }
}

// WithCacheLimit bounds the enumerator's memoization cache.
func WithCacheLimit(n int) Option {
	return func(o *options) { o.cacheLimit = &n }
}

// Sweep is a planned sweep ready to run.
type Sweep struct {
	ID   string
	Tree *tree.Tree
	Loop *executor.Loop
}

// Combinations returns the size of the sweep's space.
func (s *Sweep) Combinations() *big.Int {
	return s.Tree.Cardinality()
}

// Plan builds the tree for rootAbstract and prepares its execution loop
// without running anything.
func Plan(ctx context.Context, cat *catalog.Catalog, rootAbstract string, b tree.Bindings, opts ...Option) (*Sweep, error) {
	o := options{display: display.Nop{}, maxCombinations: DefaultMaxCombinations}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	ctx = ctxlog.WithSweep(ctx, o.id)
	logger := ctxlog.FromContext(ctx)

	t, err := tree.Build(ctx, cat, rootAbstract, b)
	if err != nil {
		return nil, fmt.Errorf("failed to build configuration tree for %q: %w", rootAbstract, err)
	}

	size := t.Cardinality()
	if o.maxCombinations > 0 && size.Cmp(big.NewInt(o.maxCombinations)) > 0 {
		return nil, fmt.Errorf("%w: %s combinations exceed the limit of %d", ErrSpaceTooLarge, size, o.maxCombinations)
	}
	logger.Info("Sweep planned.", "root", rootAbstract, "combinations", size.String())

	loopOpts := []executor.Option{
		executor.WithDisplay(o.display),
		executor.WithTimeout(o.timeout),
		executor.WithMetrics(o.metrics),
	}
	if o.gate != nil {
		loopOpts = append(loopOpts, executor.WithGate(o.gate))
	}
	if o.observer != nil {
		loopOpts = append(loopOpts, executor.WithObserver(o.observer))
	}
	if o.cacheLimit != nil {
		loopOpts = append(loopOpts, executor.WithCacheLimit(*o.cacheLimit))
	}

	return &Sweep{
		ID:   o.id,
		Tree: t,
		Loop: executor.New(t, results.NewCollector(o.id), loopOpts...),
	}, nil
}

// Run executes the sweep. The collector is returned even when the sweep was
// cancelled, together with the *sweeperr.CancellationSignal.
func (s *Sweep) Run(ctx context.Context) (*results.Collector, error) {
	ctx = ctxlog.WithSweep(ctx, s.ID)
	return s.Loop.Run(ctx)
}

// RunSweep plans and runs a sweep in one call.
func RunSweep(ctx context.Context, cat *catalog.Catalog, rootAbstract string, b tree.Bindings, opts ...Option) (*results.Collector, error) {
	s, err := Plan(ctx, cat, rootAbstract, b, opts...)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}
