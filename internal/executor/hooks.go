package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	"github.com/specialistvlad/gridsweep/internal/enumerator"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/sweeperr"
)

// hooks connects the enumerator lifecycle to the loop.
type hooks struct {
	loop *Loop
}

func (h *hooks) BeforeIteration(ctx context.Context) {
	l := h.loop
	total, _ := l.total.Float64()
	l.metrics.SweepStarted(total)
	ctxlog.FromContext(ctx).Info("Sweep started.", "combinations", l.total.String(), "paced", l.gate != nil)
}

func (h *hooks) AfterIteration(ctx context.Context) {
	l := h.loop
	stats := l.enum.Stats()
	l.metrics.SweepFinished(stats.CacheHits, stats.CacheMisses)
	ctxlog.FromContext(ctx).Info("Sweep finished.",
		"points", l.collector.Len(),
		"combinations", stats.Produced,
		"failed", stats.Failed,
		"cache_hits", stats.CacheHits,
	)
}

func (h *hooks) ClearEnumerationResults(ctx context.Context) {
	l := h.loop
	l.collector = results.NewCollector(l.collector.ID())
	ctxlog.FromContext(ctx).Debug("Sweep results cleared.")
}

func (h *hooks) Iterating(ctx context.Context, inst *enumerator.Instance) error {
	l := h.loop
	l.started = time.Now()

	if inst.Err != nil {
		return &sweeperr.ComputationError{Kind: sweeperr.KindMaterialize, Inputs: inst.Inputs, Err: inst.Err}
	}
	comp, ok := inst.Object.(Computation)
	if !ok {
		return &sweeperr.ComputationError{
			Kind:   sweeperr.KindNotComputation,
			Inputs: inst.Inputs,
			Err:    fmt.Errorf("%T does not implement Computation", inst.Object),
		}
	}

	sink := results.NewSink(l.collector, inst.Inputs)
	if err := l.call(ctxlog.WithCombination(ctx, inst.Index), comp, sink); err != nil {
		sink.Close()
		var cerr *sweeperr.ComputationError
		if errors.As(err, &cerr) {
			return err
		}
		return &sweeperr.ComputationError{Kind: sweeperr.KindFailed, Inputs: inst.Inputs, Err: err}
	}
	if sink.Commit() == 0 {
		ctxlog.FromContext(ctx).Debug("Computation recorded no data points.", "index", inst.Index)
	}

	h.report(inst, "")
	return nil
}

func (h *hooks) IterationFailed(ctx context.Context, inst *enumerator.Instance, err error) {
	l := h.loop
	if ctx.Err() != nil {
		// The sweep itself was cancelled; the combination did not fail.
		ctxlog.FromContext(ctx).Info("Combination interrupted.", "index", inst.Index, "error", err)
		return
	}
	kind := sweeperr.KindFailed
	var cerr *sweeperr.ComputationError
	if errors.As(err, &cerr) {
		kind = cerr.Kind
	}
	results.NewSink(l.collector, inst.Inputs).Fail(kind, err)
	ctxlog.FromContext(ctx).Warn("Combination failed.", "index", inst.Index, "kind", kind, "error", err)
	h.report(inst, kind)
}

func (h *hooks) report(inst *enumerator.Instance, failureKind string) {
	l := h.loop
	elapsed := time.Since(l.started)
	l.metrics.Combination(elapsed, failureKind)
	if l.observer != nil {
		l.observer(Progress{
			Index:     inst.Index,
			Total:     l.total,
			Inputs:    inst.Inputs,
			Failed:    failureKind != "",
			ErrorKind: failureKind,
			Elapsed:   elapsed,
		})
	}
}

// call runs one computation, converting panics and timeouts into
// computation errors.
func (l *Loop) call(ctx context.Context, comp Computation, sink *results.Sink) error {
	if l.timeout <= 0 {
		return safeRun(ctx, comp, sink, l)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- safeRun(ctx, comp, sink, l) }()

	select {
	case err := <-done:
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return l.timedOut(ctx, sink)
		}
		return err
	case <-ctx.Done():
		return l.timedOut(ctx, sink)
	}
}

func (l *Loop) timedOut(ctx context.Context, sink *results.Sink) error {
	sink.Close()
	kind := sweeperr.KindTimeout
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = sweeperr.KindFailed
	}
	return &sweeperr.ComputationError{
		Kind:   kind,
		Inputs: sink.Inputs(),
		Err:    fmt.Errorf("computation did not finish within %s: %w", l.timeout, ctx.Err()),
	}
}

func safeRun(ctx context.Context, comp Computation, sink *results.Sink, l *Loop) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &sweeperr.ComputationError{
				Kind:   sweeperr.KindPanic,
				Inputs: sink.Inputs(),
				Err:    fmt.Errorf("%v\n%s", r, debug.Stack()),
			}
		}
	}()
	return comp.Run(ctx, sink, l.display)
}
