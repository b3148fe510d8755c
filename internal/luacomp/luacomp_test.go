package luacomp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/executor"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/specialistvlad/gridsweep/internal/sweeperr"
	"github.com/specialistvlad/gridsweep/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

var _ executor.Computation = (*Object)(nil)

func mustCompile(t *testing.T, s Script) catalog.Implementation {
	t.Helper()
	impl, err := Compile(s)
	require.NoError(t, err)
	return impl
}

func sweep(t *testing.T, c *catalog.Catalog, root string, b tree.Bindings, opts ...executor.Option) results.View {
	t.Helper()
	ctx := context.Background()
	tr, err := tree.Build(ctx, c, root, b)
	require.NoError(t, err)
	collector, err := executor.New(tr, results.NewCollector("lua"), opts...).Run(ctx)
	require.NoError(t, err)
	return collector.View()
}

func TestCompile_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		source  string
		wantErr string
		is      error
	}{
		{name: "syntax", source: "function run(", wantErr: "parse script"},
		{name: "no run", source: "x = 1", is: ErrNoRunFunction},
		{name: "run is not a function", source: "run = 3", is: ErrNoRunFunction},
		{name: "top level error", source: "error('boom')", wantErr: "boom"},
		{name: "sandboxed loader", source: "loadstring('x = 1')()", wantErr: "load script"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(Script{Name: "lua.Broken", Abstract: "Broken", Source: tc.source})
			require.Error(t, err)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
			if tc.wantErr != "" {
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestScriptSweep(t *testing.T) {
	c := catalog.New()
	c.Register(mustCompile(t, Script{
		Name:     "race.Scripted",
		Abstract: "Race",
		Params: []schema.Param{
			schema.Scalar("water", cty.Number),
			schema.Scalar("temperature", cty.Number),
		},
		Source: `
function run(inputs)
  local w, t = inputs.water, inputs.temperature
  return { score = (-w*w + 12*w) * (-t*t + 28*t + 8), hot = t > 20 }
end`,
	}))
	require.NoError(t, c.Validate(context.Background()))

	view := sweep(t, c, "Race", tree.Bindings{
		Candidates: map[string][]cty.Value{
			"water":       {cty.NumberIntVal(1), cty.NumberIntVal(2)},
			"temperature": {cty.NumberIntVal(20), cty.NumberIntVal(22)},
		},
	})
	require.Equal(t, 4, view.Len())

	dp := view.At(3)
	assert.False(t, dp.Failed)
	score, ok := dp.Result("score")
	require.True(t, ok)
	assert.Equal(t, 20.0*(-484+616+8), score.Float())
	hot, ok := dp.Result("hot")
	require.True(t, ok)
	assert.True(t, hot.Bool())

	_, resultCols := view.Columns()
	assert.Equal(t, []string{"hot", "score"}, resultCols)
}

func TestScriptComposite(t *testing.T) {
	c := catalog.New()
	c.Register(mustCompile(t, Script{
		Name:     "lua.Wheel",
		Abstract: "Wheel",
		Params:   []schema.Param{schema.Scalar("pressure", cty.Number)},
		Source:   `function run(inputs) return nil end`,
	}))
	c.Register(mustCompile(t, Script{
		Name:     "lua.Cart",
		Abstract: "Cart",
		Params: []schema.Param{
			schema.Array("wheels", schema.Composite("", "Wheel")),
			schema.Scalar("label", cty.String, cty.StringVal("cart")),
		},
		Source: `
function run(inputs)
  local total = 0
  for _, w in ipairs(inputs.wheels) do total = total + w.pressure end
  return { wheels = #inputs.wheels, pressure = total, label = inputs.label }
end`,
	}))

	view := sweep(t, c, "Cart", tree.Bindings{
		Candidates: map[string][]cty.Value{"wheels[].pressure": {cty.NumberIntVal(2)}},
		Lengths:    map[string][]int{"wheels": {2, 3}},
	})
	require.Equal(t, 2, view.Len())

	for i, want := range []float64{4, 6} {
		dp := view.At(i)
		require.False(t, dp.Failed, dp.Error)
		p, _ := dp.Result("pressure")
		assert.Equal(t, want, p.Float())
		label, _ := dp.Result("label")
		assert.Equal(t, "cart", label.Str())
	}
}

func TestScriptResults(t *testing.T) {
	testCases := []struct {
		name       string
		source     string
		wantPoints int
		wantKind   string
		wantErr    string
	}{
		{name: "many rows", source: `function run(i) return { {step = 1}, {step = 2}, {step = 3} } end`, wantPoints: 3},
		{name: "nothing", source: `function run(i) return nil end`, wantPoints: 0},
		{name: "nil and message", source: `function run(i) return nil, "out of range" end`, wantPoints: 1, wantKind: sweeperr.KindFailed, wantErr: "out of range"},
		{name: "raised error", source: `function run(i) error("exploded") end`, wantPoints: 1, wantKind: sweeperr.KindFailed, wantErr: "exploded"},
		{name: "bad result type", source: `function run(i) return { f = function() end } end`, wantPoints: 1, wantKind: sweeperr.KindFailed, wantErr: "unsupported type"},
		{name: "scalar return", source: `function run(i) return 42 end`, wantPoints: 1, wantKind: sweeperr.KindFailed, wantErr: "want a table"},
		{name: "bad second row", source: `function run(i) return { {ok = 1}, {f = function() end} } end`, wantPoints: 1, wantKind: sweeperr.KindFailed, wantErr: "unsupported type"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := catalog.New()
			c.Register(mustCompile(t, Script{
				Name:     "lua.Case",
				Abstract: "Case",
				Params:   []schema.Param{schema.Scalar("x", cty.Number)},
				Source:   tc.source,
			}))
			view := sweep(t, c, "Case", tree.Bindings{
				Candidates: map[string][]cty.Value{"x": {cty.NumberIntVal(1)}},
			})
			require.Equal(t, tc.wantPoints, view.Len())
			if tc.wantKind == "" {
				assert.Zero(t, view.Failures())
				return
			}
			dp := view.At(0)
			assert.True(t, dp.Failed)
			assert.Equal(t, tc.wantKind, dp.ErrorKind)
			assert.Contains(t, dp.Error, tc.wantErr)
		})
	}
}

type notes struct {
	display.Nop
	got []string
}

func (n *notes) Note(_ context.Context, msg string, _ ...any) {
	n.got = append(n.got, msg)
}

func TestScriptNote(t *testing.T) {
	c := catalog.New()
	c.Register(mustCompile(t, Script{
		Name:     "lua.Noisy",
		Abstract: "Noisy",
		Params:   []schema.Param{schema.Scalar("x", cty.Number)},
		Source:   `function run(i) note("seen", "x", i.x) return { x = i.x } end`,
	}))

	d := &notes{}
	view := sweep(t, c, "Noisy", tree.Bindings{
		Candidates: map[string][]cty.Value{"x": {cty.NumberIntVal(1), cty.NumberIntVal(2)}},
	}, executor.WithDisplay(d))
	require.Equal(t, 2, view.Len())
	assert.Equal(t, []string{"seen", "seen"}, d.got)
}

func TestScriptTimeout(t *testing.T) {
	c := catalog.New()
	c.Register(mustCompile(t, Script{
		Name:     "lua.Spin",
		Abstract: "Spin",
		Params:   []schema.Param{schema.Scalar("x", cty.Number)},
		Source:   `function run(i) while true do end end`,
	}))

	view := sweep(t, c, "Spin", tree.Bindings{
		Candidates: map[string][]cty.Value{"x": {cty.NumberIntVal(1)}},
	}, executor.WithTimeout(50*time.Millisecond))
	require.Equal(t, 1, view.Len())
	assert.Equal(t, sweeperr.KindTimeout, view.At(0).ErrorKind)
}

func TestObjectRun_ClosedSink(t *testing.T) {
	impl := mustCompile(t, Script{
		Name:     "lua.Pair",
		Abstract: "Pair",
		Source:   `function run(i) return { {a = 1}, {a = 2} } end`,
	})
	obj, err := impl.Factory(schema.NewArgs("lua.Pair"))
	require.NoError(t, err)

	sink := results.NewSink(results.NewCollector("closed"), nil)
	sink.Close()
	err = obj.(*Object).Run(context.Background(), sink, display.Nop{})
	assert.True(t, errors.Is(err, results.ErrSinkClosed))
}
