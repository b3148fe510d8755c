package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/gate"
	"github.com/specialistvlad/gridsweep/internal/metrics"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/specialistvlad/gridsweep/internal/sweeperr"
	"github.com/specialistvlad/gridsweep/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type runFunc func(ctx context.Context, a, b int64, sink *results.Sink) error

// buildTree registers a two-parameter computation backed by fn and binds
// a ∈ {1,2,3}, b ∈ {10,20}.
func buildTree(t *testing.T, fn runFunc) *tree.Tree {
	t.Helper()
	c := catalog.New()
	c.Register(catalog.Implementation{
		Name:     "calc.Sum",
		Abstract: "Calc",
		Params:   []schema.Param{schema.Scalar("a", cty.Number), schema.Scalar("b", cty.Number)},
		Factory: func(args *schema.Args) (any, error) {
			a, b := args.Int("a"), args.Int("b")
			return ComputationFunc(func(ctx context.Context, sink *results.Sink, _ display.Display) error {
				return fn(ctx, a, b, sink)
			}), nil
		},
	})
	tr, err := tree.Build(context.Background(), c, "Calc", tree.Bindings{
		Candidates: map[string][]cty.Value{
			"a": {cty.NumberIntVal(1), cty.NumberIntVal(2), cty.NumberIntVal(3)},
			"b": {cty.NumberIntVal(10), cty.NumberIntVal(20)},
		},
	})
	require.NoError(t, err)
	return tr
}

func sum(_ context.Context, a, b int64, sink *results.Sink) error {
	return sink.Record(results.F("sum", results.Int(a+b)))
}

func TestLoopRecordsEveryCombination(t *testing.T) {
	collector := results.NewCollector("t")
	got, err := New(buildTree(t, sum), collector).Run(context.Background())
	require.NoError(t, err)
	require.Same(t, collector, got)

	view := got.View()
	require.Equal(t, 6, view.Len())
	wantSums := []int64{11, 21, 12, 22, 13, 23}
	for i, dp := range view.Points() {
		assert.Equal(t, i, dp.Index)
		assert.False(t, dp.Failed)
		s, ok := dp.Result("sum")
		require.True(t, ok)
		assert.Equal(t, wantSums[i], s.Int())
	}
}

func TestLoopIsolatesFailures(t *testing.T) {
	testCases := []struct {
		name     string
		fn       runFunc
		wantKind string
		wantErr  string
	}{
		{
			name: "returned error",
			fn: func(ctx context.Context, a, b int64, sink *results.Sink) error {
				if a == 2 && b == 10 {
					return errors.New("diverged")
				}
				return sum(ctx, a, b, sink)
			},
			wantKind: sweeperr.KindFailed,
			wantErr:  "diverged",
		},
		{
			name: "panic",
			fn: func(ctx context.Context, a, b int64, sink *results.Sink) error {
				if a == 2 && b == 10 {
					var m map[string]int
					m["x"] = 1
				}
				return sum(ctx, a, b, sink)
			},
			wantKind: sweeperr.KindPanic,
			wantErr:  "assignment to entry in nil map",
		},
		{
			name: "error after recording",
			fn: func(ctx context.Context, a, b int64, sink *results.Sink) error {
				if err := sum(ctx, a, b, sink); err != nil {
					return err
				}
				if a == 2 && b == 10 {
					return errors.New("second row rejected")
				}
				return nil
			},
			wantKind: sweeperr.KindFailed,
			wantErr:  "second row rejected",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			collector, err := New(buildTree(t, tc.fn), results.NewCollector("t")).Run(context.Background())
			require.NoError(t, err)

			view := collector.View()
			require.Equal(t, 6, view.Len(), "a failing combination never aborts the sweep")
			assert.Equal(t, 1, view.Failures())

			failed := view.At(2)
			assert.True(t, failed.Failed)
			assert.Equal(t, tc.wantKind, failed.ErrorKind)
			assert.Contains(t, failed.Error, tc.wantErr)
			a, _ := failed.Input("a")
			b, _ := failed.Input("b")
			assert.Equal(t, int64(2), a.Int())
			assert.Equal(t, int64(10), b.Int())
			assert.Empty(t, failed.Results)

			for i, dp := range view.Points() {
				if i != 2 {
					assert.False(t, dp.Failed, "point %d", i)
				}
			}
		})
	}
}

func TestLoopRejectsNonComputationRoots(t *testing.T) {
	c := catalog.New()
	c.Register(catalog.Implementation{
		Name: "plain.Value", Abstract: "Plain",
		Params:  []schema.Param{schema.Scalar("x", cty.Number, cty.NumberIntVal(1))},
		Factory: func(*schema.Args) (any, error) { return struct{}{}, nil },
	})
	tr, err := tree.Build(context.Background(), c, "Plain", tree.Bindings{})
	require.NoError(t, err)

	collector, err := New(tr, results.NewCollector("t")).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, collector.Len())
	dp := collector.View().At(0)
	assert.Equal(t, sweeperr.KindNotComputation, dp.ErrorKind)
	assert.Contains(t, dp.Error, "struct {} does not implement Computation")
}

func TestLoopRecordsMaterializationFailures(t *testing.T) {
	c := catalog.New()
	c.Register(catalog.Implementation{
		Name: "broken.Factory", Abstract: "Broken",
		Params:  []schema.Param{schema.Scalar("x", cty.Number, cty.NumberIntVal(1), cty.NumberIntVal(2))},
		Factory: func(a *schema.Args) (any, error) { return nil, fmt.Errorf("cannot build x=%d", a.Int("x")) },
	})
	tr, err := tree.Build(context.Background(), c, "Broken", tree.Bindings{})
	require.NoError(t, err)

	collector, err := New(tr, results.NewCollector("t")).Run(context.Background())
	require.NoError(t, err)
	view := collector.View()
	require.Equal(t, 2, view.Failures())
	assert.Equal(t, sweeperr.KindMaterialize, view.At(1).ErrorKind)
	assert.Contains(t, view.At(1).Error, "cannot build x=2")
}

func TestLoopTimeout(t *testing.T) {
	slow := func(ctx context.Context, a, b int64, sink *results.Sink) error {
		if a == 1 && b == 20 {
			<-ctx.Done()
			return ctx.Err()
		}
		return sum(ctx, a, b, sink)
	}
	collector, err := New(buildTree(t, slow), results.NewCollector("t"), WithTimeout(20*time.Millisecond)).Run(context.Background())
	require.NoError(t, err)

	view := collector.View()
	require.Equal(t, 6, view.Len())
	assert.Equal(t, sweeperr.KindTimeout, view.At(1).ErrorKind)
	assert.Equal(t, 1, view.Failures())
}

func TestLoopTimeoutDiscardsRecordedPoints(t *testing.T) {
	late := make(chan error, 1)
	slow := func(ctx context.Context, a, b int64, sink *results.Sink) error {
		if a == 1 && b == 20 {
			assert.NoError(t, sink.Record(results.F("sum", results.Int(-1))))
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			late <- sink.Record(results.F("sum", results.Int(-2)))
			return ctx.Err()
		}
		return sum(ctx, a, b, sink)
	}
	collector, err := New(buildTree(t, slow), results.NewCollector("t"), WithTimeout(20*time.Millisecond)).Run(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, <-late, results.ErrSinkClosed)

	view := collector.View()
	require.Equal(t, 6, view.Len())
	assert.Equal(t, 1, view.Failures())
	timedOut := view.At(1)
	assert.Equal(t, sweeperr.KindTimeout, timedOut.ErrorKind)
	assert.Empty(t, timedOut.Results)
	for _, dp := range view.Points() {
		s, ok := dp.Result("sum")
		if ok {
			assert.Positive(t, s.Int(), "point %d", dp.Index)
		}
	}
}

func TestLoopCancellationIsNotAFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fn := func(ctx context.Context, a, b int64, sink *results.Sink) error {
		if a == 2 && b == 10 {
			assert.NoError(t, sink.Record(results.F("sum", results.Int(a+b))))
			cancel()
			<-ctx.Done()
			return ctx.Err()
		}
		return sum(ctx, a, b, sink)
	}
	var progress []Progress
	collector, err := New(buildTree(t, fn), results.NewCollector("t"),
		WithObserver(func(p Progress) { progress = append(progress, p) }),
	).Run(ctx)

	var sig *sweeperr.CancellationSignal
	require.True(t, errors.As(err, &sig))
	assert.ErrorIs(t, sig.Cause, context.Canceled)

	view := collector.View()
	assert.Equal(t, 2, view.Len(), "only combinations finished before the cancel are kept")
	assert.Zero(t, view.Failures())
	assert.Len(t, progress, 2)
}

type recordingDisplay struct {
	mu    sync.Mutex
	notes []string
	shown []results.View
}

func (d *recordingDisplay) Note(_ context.Context, msg string, _ ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notes = append(d.notes, msg)
}

func (d *recordingDisplay) Show(_ context.Context, view results.View) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, view)
	return nil
}

func TestLoopObserverMetricsAndDisplay(t *testing.T) {
	failOdd := func(ctx context.Context, a, b int64, sink *results.Sink) error {
		if (a+b)%2 == 1 {
			return errors.New("odd")
		}
		return sum(ctx, a, b, sink)
	}
	var progress []Progress
	disp := &recordingDisplay{}
	m := metrics.New(prometheus.NewRegistry())

	loop := New(buildTree(t, failOdd), results.NewCollector("t"),
		WithObserver(func(p Progress) { progress = append(progress, p) }),
		WithDisplay(disp),
		WithMetrics(m),
	)
	_, err := loop.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, progress, 6)
	for i, p := range progress {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, "6", p.Total.String())
	}
	assert.True(t, progress[0].Failed, "1+10 is odd")
	assert.Equal(t, sweeperr.KindFailed, progress[0].ErrorKind)
	assert.False(t, progress[2].Failed, "2+10 is even")

	require.Len(t, disp.shown, 1)
	assert.Equal(t, 6, disp.shown[0].Len())
	assert.Equal(t, 3, disp.shown[0].Failures())
}

func TestLoopAbortAfterK(t *testing.T) {
	const k = 4
	g := gate.New()
	var loop *Loop
	fn := func(ctx context.Context, a, b int64, sink *results.Sink) error {
		if loop.Collector().Len() == k-1 {
			g.Abort()
		} else {
			g.Release()
		}
		return sum(ctx, a, b, sink)
	}
	loop = New(buildTree(t, fn), results.NewCollector("t"), WithGate(g))

	collector, err := loop.Run(context.Background())
	var sig *sweeperr.CancellationSignal
	require.True(t, errors.As(err, &sig))
	assert.Equal(t, k, sig.After)
	assert.Equal(t, k, collector.Len(), "points collected before the abort are kept")
}

func TestLoopClearResults(t *testing.T) {
	loop := New(buildTree(t, sum), results.NewCollector("t"), WithCacheLimit(0))
	first, err := loop.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, first.Len())

	loop.Enumerator().ClearEnumerationResults(context.Background())
	assert.Equal(t, 0, loop.Collector().Len())
	assert.Equal(t, "t", loop.Collector().ID())

	second, err := loop.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, second.Len())
	assert.Equal(t, 6, first.Len(), "earlier collectors are left untouched")
}
