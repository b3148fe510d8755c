package session

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/executor"
	"github.com/specialistvlad/gridsweep/internal/gate"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/sweeperr"
	"github.com/specialistvlad/gridsweep/internal/tree"
	"github.com/specialistvlad/gridsweep/modules/race"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func raceCatalog() *catalog.Catalog {
	return catalog.New().Load(&race.Module{})
}

func raceBindings() tree.Bindings {
	return tree.Bindings{Candidates: map[string][]cty.Value{
		"water":       {cty.NumberIntVal(1), cty.NumberIntVal(2), cty.NumberIntVal(3)},
		"temperature": {cty.NumberIntVal(20), cty.NumberIntVal(22)},
	}}
}

func TestRunSweepRace(t *testing.T) {
	collector, err := RunSweep(context.Background(), raceCatalog(), "Race", raceBindings(), WithID("race-1"))
	require.NoError(t, err)
	assert.Equal(t, "race-1", collector.ID())

	view := collector.View()
	require.Equal(t, 6, view.Len())
	nan := 0
	for _, dp := range view.Points() {
		score, ok := dp.Result("score")
		require.True(t, ok)
		if math.IsNaN(score.Float()) {
			nan++
		}
	}
	assert.Equal(t, 2, nan)
}

func TestPlanGeneratesID(t *testing.T) {
	s, err := Plan(context.Background(), raceCatalog(), "Race", raceBindings())
	require.NoError(t, err)
	assert.Len(t, s.ID, 36)
	assert.Equal(t, "6", s.Combinations().String())
	assert.Equal(t, s.ID, s.Loop.Collector().ID())
}

func TestPlanCacheLimit(t *testing.T) {
	ctx := context.Background()

	cached, err := Plan(ctx, raceCatalog(), "Race", raceBindings())
	require.NoError(t, err)
	_, err = cached.Run(ctx)
	require.NoError(t, err)
	assert.Positive(t, cached.Loop.Enumerator().Stats().CacheHits)

	uncached, err := Plan(ctx, raceCatalog(), "Race", raceBindings(), WithCacheLimit(0))
	require.NoError(t, err)
	_, err = uncached.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, uncached.Loop.Enumerator().Stats().CacheHits)
	assert.Equal(t, 6, uncached.Loop.Collector().Len())
}

func TestPlanErrors(t *testing.T) {
	t.Run("empty space is reported before running", func(t *testing.T) {
		b := raceBindings()
		b.Candidates["water"] = nil
		collector, err := RunSweep(context.Background(), raceCatalog(), "Race", b)
		assert.Nil(t, collector)
		var empty *sweeperr.EmptySpaceError
		require.True(t, errors.As(err, &empty))
		assert.Equal(t, "water", empty.Path)
	})

	t.Run("unknown root type", func(t *testing.T) {
		_, err := RunSweep(context.Background(), raceCatalog(), "Boat", tree.Bindings{})
		var notFound *sweeperr.TypeNotFoundError
		require.True(t, errors.As(err, &notFound))
	})

	t.Run("combination limit", func(t *testing.T) {
		_, err := Plan(context.Background(), raceCatalog(), "Race", raceBindings(), WithMaxCombinations(5))
		assert.ErrorIs(t, err, ErrSpaceTooLarge)

		_, err = Plan(context.Background(), raceCatalog(), "Race", raceBindings(), WithMaxCombinations(0))
		assert.NoError(t, err)
	})
}

// TestPacedBackgroundSweep runs the sweep on a background goroutine and
// drives it from the foreground through the gate, the way the interactive
// controller does.
func TestPacedBackgroundSweep(t *testing.T) {
	const k = 3
	g := gate.New()
	progress := make(chan executor.Progress)

	s, err := Plan(context.Background(), raceCatalog(), "Race", raceBindings(),
		WithGate(g),
		WithObserver(func(p executor.Progress) { progress <- p }),
	)
	require.NoError(t, err)

	var (
		collector *results.Collector
		runErr    error
	)
	eg, ctx := errgroup.WithContext(context.Background())
	eg.Go(func() error {
		defer close(progress)
		collector, runErr = s.Run(ctx)
		return nil
	})

	seen := 0
	for p := range progress {
		seen++
		assert.Equal(t, seen-1, p.Index)
		if seen == k {
			g.Abort()
			continue
		}
		require.Eventually(t, g.Waiting, time.Second, time.Millisecond)
		g.Release()
	}
	require.NoError(t, eg.Wait())

	assert.Equal(t, k, seen)
	var sig *sweeperr.CancellationSignal
	require.True(t, errors.As(runErr, &sig))
	assert.Equal(t, k, sig.After)
	assert.ErrorIs(t, runErr, gate.ErrAborted)
	assert.Equal(t, k, collector.Len())
}

func TestSweepStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := 0
	collector, err := RunSweep(ctx, raceCatalog(), "Race", raceBindings(),
		WithObserver(func(executor.Progress) {
			n++
			if n == 2 {
				cancel()
			}
		}),
	)
	var sig *sweeperr.CancellationSignal
	require.True(t, errors.As(err, &sig))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, collector.Len())
}
