package race

import (
	"context"
	"math"
	"testing"

	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/executor"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestScore(t *testing.T) {
	assert.True(t, math.IsNaN(Score(1, 20)))
	assert.True(t, math.IsNaN(Score(3, 22)))
	assert.Equal(t, 20.0*(-484+616+8), Score(2, 22))
}

func TestRaceSweep(t *testing.T) {
	ctx := context.Background()
	c := catalog.New().Load(&Module{})
	require.NoError(t, c.Validate(ctx))

	tr, err := tree.Build(ctx, c, "Race", tree.Bindings{
		Candidates: map[string][]cty.Value{
			"water":       {cty.NumberIntVal(1), cty.NumberIntVal(2), cty.NumberIntVal(3)},
			"temperature": {cty.NumberIntVal(20), cty.NumberIntVal(22)},
		},
	})
	require.NoError(t, err)

	collector, err := executor.New(tr, results.NewCollector("race")).Run(ctx)
	require.NoError(t, err)

	view := collector.View()
	require.Equal(t, 6, view.Len())

	type point struct{ water, temperature int64 }
	order := []point{{1, 20}, {1, 22}, {2, 20}, {2, 22}, {3, 20}, {3, 22}}
	nan := 0
	for i, dp := range view.Points() {
		w, _ := dp.Input("water")
		temp, _ := dp.Input("temperature")
		assert.Equal(t, order[i], point{w.Int(), temp.Int()}, "combination %d", i)

		score, ok := dp.Result("score")
		require.True(t, ok)
		assert.False(t, dp.Failed)
		if score.IsNaN() {
			nan++
			continue
		}
		wf, tf := float64(order[i].water), float64(order[i].temperature)
		want := (-wf*wf + 12*wf) * (-tf*tf + 28*tf + 8)
		assert.Equal(t, want, score.Float())
		assert.False(t, math.IsInf(score.Float(), 0))
	}
	assert.Equal(t, 2, nan)
	assert.True(t, view.At(0).Results[0].Value.IsNaN())
	assert.True(t, view.At(5).Results[0].Value.IsNaN())
}
