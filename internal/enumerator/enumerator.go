package enumerator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math/big"
	"runtime/debug"
	"sync"

	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	"github.com/specialistvlad/gridsweep/internal/gate"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/specialistvlad/gridsweep/internal/sweeperr"
	"github.com/specialistvlad/gridsweep/internal/tree"
)

// DefaultCacheLimit bounds the length of a single memoized selection list.
const DefaultCacheLimit = 1 << 16

// Instance is one combination handed to the hooks. It is owned by the
// iteration step that produced it and is not retained afterwards.
type Instance struct {
	// Index is the position of the combination in enumeration order.
	Index     int
	Selection *Selection
	Inputs    []results.Field
	// Object is the materialized root object; nil when Err is set.
	Object any
	// Err reports a materialization failure.
	Err error
}

// Hooks receive the lifecycle of a full traversal.
type Hooks interface {
	// BeforeIteration resets consumer-side state before the first instance.
	BeforeIteration(ctx context.Context)
	// Iterating is called once per instance. Errors and panics are reported
	// to IterationFailed and never stop the traversal.
	Iterating(ctx context.Context, inst *Instance) error
	// IterationFailed receives the failure of one instance.
	IterationFailed(ctx context.Context, inst *Instance, err error)
	// AfterIteration finalizes after the last instance or on cancellation.
	AfterIteration(ctx context.Context)
}

// ResultsClearer is implemented by hooks that hold accumulated output which
// ClearEnumerationResults should drop.
type ResultsClearer interface {
	ClearEnumerationResults(ctx context.Context)
}

// Stats describes the enumerator's accumulated state.
type Stats struct {
	Produced    int
	Failed      int
	CacheHits   int
	CacheMisses int
}

type cacheEntry struct {
	generation uint64
	lists      map[int][]*Selection
}

// Enumerator produces the combinations of one tree. Passes over the same
// enumerator serialize; the cache and counters are guarded separately so
// hooks may read Stats or clear caches while a pass is running.
type Enumerator struct {
	tree       *tree.Tree
	hooks      Hooks
	waiter     *gate.Gate
	cacheLimit int

	pass sync.Mutex

	mu    sync.Mutex
	cache map[*tree.Node]*cacheEntry
	stats Stats
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithGate makes Run wait on g between successive combinations.
func WithGate(g *gate.Gate) Option {
	return func(e *Enumerator) { e.waiter = g }
}

// WithCacheLimit bounds the number of selections memoized per node choice.
// Zero disables memoization.
func WithCacheLimit(n int) Option {
	return func(e *Enumerator) { e.cacheLimit = n }
}

// New creates an enumerator over t reporting to hooks. hooks may be nil when
// only Produce is used.
func New(t *tree.Tree, hooks Hooks, opts ...Option) *Enumerator {
	e := &Enumerator{
		tree:       t,
		hooks:      hooks,
		cacheLimit: DefaultCacheLimit,
		cache:      make(map[*tree.Node]*cacheEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tree returns the enumerated tree.
func (e *Enumerator) Tree() *tree.Tree {
	return e.tree
}

// Cardinality returns the number of instances a full pass produces.
func (e *Enumerator) Cardinality() *big.Int {
	return e.tree.Cardinality()
}

// ObjectToWaitFor returns the gate Run blocks on between combinations, or
// nil when consumption is unthrottled.
func (e *Enumerator) ObjectToWaitFor() *gate.Gate {
	return e.waiter
}

// Stats returns a snapshot of the accumulated counters.
func (e *Enumerator) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// ClearCaches drops all memoized selections.
func (e *Enumerator) ClearCaches() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[*tree.Node]*cacheEntry)
}

// ClearEnumerationResults drops accumulated output state but keeps the
// memoization cache.
func (e *Enumerator) ClearEnumerationResults(ctx context.Context) {
	e.mu.Lock()
	hits, misses := e.stats.CacheHits, e.stats.CacheMisses
	e.stats = Stats{CacheHits: hits, CacheMisses: misses}
	e.mu.Unlock()

	if c, ok := e.hooks.(ResultsClearer); ok {
		c.ClearEnumerationResults(ctx)
	}
}

// Produce returns the lazy sequence of instances in enumeration order. The
// sequence can be ranged over again to reproduce it. It stops early when ctx
// is done.
func (e *Enumerator) Produce(ctx context.Context) iter.Seq[*Instance] {
	return func(yield func(*Instance) bool) {
		e.traverse(ctx, func(index int, sel *Selection) bool {
			return yield(e.instance(index, sel))
		})
	}
}

func (e *Enumerator) traverse(ctx context.Context, fn func(int, *Selection) bool) {
	e.pass.Lock()
	defer e.pass.Unlock()

	index := 0
	e.walk(e.tree.Root, func(sel *Selection) bool {
		if ctx.Err() != nil {
			return false
		}
		ok := fn(index, sel)
		index++
		return ok
	})
}

func (e *Enumerator) instance(index int, sel *Selection) *Instance {
	inst := &Instance{Index: index, Selection: sel, Inputs: Inputs(sel)}
	inst.Object, inst.Err = Materialize(sel)
	e.count(func(s *Stats) { s.Produced++ })
	return inst
}

// Run performs a full traversal, delivering every instance to the hooks.
// Before every combination but the first it waits on the gate, so an abort
// observed there leaves exactly the completed combinations behind. It
// returns a *sweeperr.CancellationSignal when the gate is aborted or ctx is
// done before the space is exhausted, and nil otherwise.
func (e *Enumerator) Run(ctx context.Context) error {
	if e.hooks == nil {
		return errors.New("enumerator has no hooks")
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Enumeration starting.", "combinations", e.Cardinality().String())

	e.hooks.BeforeIteration(ctx)
	defer e.hooks.AfterIteration(ctx)

	var stopped error
	done := 0
	e.traverse(ctx, func(index int, sel *Selection) bool {
		if index > 0 && e.waiter != nil {
			if err := e.waiter.Wait(ctx); err != nil {
				stopped = err
				return false
			}
		}
		e.iterate(ctx, e.instance(index, sel))
		done++
		return true
	})
	if stopped == nil && ctx.Err() != nil {
		stopped = &sweeperr.CancellationSignal{Cause: ctx.Err()}
	}
	if stopped != nil {
		var sig *sweeperr.CancellationSignal
		if !errors.As(stopped, &sig) {
			sig = &sweeperr.CancellationSignal{Cause: stopped}
			stopped = sig
		}
		sig.After = done
		logger.Info("Enumeration stopped early.", "completed", done, "reason", sig.Cause)
		return stopped
	}

	logger.Debug("Enumeration finished.", "completed", done)
	return nil
}

func (e *Enumerator) iterate(ctx context.Context, inst *Instance) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &sweeperr.ComputationError{
					Kind:   sweeperr.KindPanic,
					Inputs: inst.Inputs,
					Err:    fmt.Errorf("%v\n%s", r, debug.Stack()),
				}
			}
		}()
		return e.hooks.Iterating(ctx, inst)
	}()
	if err == nil {
		return
	}

	e.count(func(s *Stats) { s.Failed++ })
	ctxlog.FromContext(ctx).Debug("Iteration failed.", "index", inst.Index, "error", err)
	e.hooks.IterationFailed(ctx, inst, err)
}

// walk emits every selection of n. A list of selections for one local choice
// is cached only after a full, uninterrupted pass over that choice.
func (e *Enumerator) walk(n *tree.Node, yield func(*Selection) bool) bool {
	for choice := range n.Choices() {
		if list, ok := e.lookup(n, choice); ok {
			e.count(func(s *Stats) { s.CacheHits++ })
			for _, sel := range list {
				if !yield(sel) {
					return false
				}
			}
			continue
		}
		e.count(func(s *Stats) { s.CacheMisses++ })

		var list []*Selection
		collect := e.cacheLimit > 0
		ok := e.walkChoice(n, choice, func(sel *Selection) bool {
			if collect {
				if len(list) < e.cacheLimit {
					list = append(list, sel)
				} else {
					collect, list = false, nil
				}
			}
			return yield(sel)
		})
		if !ok {
			return false
		}
		if collect {
			e.store(n, choice, list)
		}
	}
	return true
}

func (e *Enumerator) walkChoice(n *tree.Node, choice int, yield func(*Selection) bool) bool {
	switch n.Kind {
	case schema.KindScalar:
		return yield(&Selection{Node: n, Choice: choice})
	case schema.KindComposite:
		return e.product(n.Options[choice].Children, nil, func(children []*Selection) bool {
			return yield(&Selection{Node: n, Choice: choice, Children: children})
		})
	case schema.KindArray:
		elems := make([]*tree.Node, n.Lengths[choice])
		for i := range elems {
			elems[i] = n.Element
		}
		return e.product(elems, nil, func(children []*Selection) bool {
			return yield(&Selection{Node: n, Choice: choice, Children: children})
		})
	}
	return true
}

// product emits the cross product of the nodes' selections, the first node
// varying slowest.
func (e *Enumerator) product(nodes []*tree.Node, prefix []*Selection, emit func([]*Selection) bool) bool {
	if len(nodes) == 0 {
		out := make([]*Selection, len(prefix))
		copy(out, prefix)
		return emit(out)
	}
	return e.walk(nodes[0], func(sel *Selection) bool {
		return e.product(nodes[1:], append(prefix, sel), emit)
	})
}

func (e *Enumerator) count(fn func(*Stats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.stats)
}

func (e *Enumerator) lookup(n *tree.Node, choice int) ([]*Selection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.cache[n]
	if !ok || entry.generation != n.Generation() {
		return nil, false
	}
	list, ok := entry.lists[choice]
	return list, ok
}

func (e *Enumerator) store(n *tree.Node, choice int, list []*Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.cache[n]
	if !ok || entry.generation != n.Generation() {
		entry = &cacheEntry{generation: n.Generation(), lists: make(map[int][]*Selection)}
		e.cache[n] = entry
	}
	entry.lists[choice] = list
}
