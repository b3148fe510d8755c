package enumerator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/gate"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/specialistvlad/gridsweep/internal/sweeperr"
	"github.com/specialistvlad/gridsweep/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type race struct{ water, temperature float64 }

type engine struct {
	name string
	size float64
}

type wheel struct{ pressure float64 }

type car struct {
	engine *engine
	wheels []*wheel
}

func testCatalog() *catalog.Catalog {
	c := catalog.New()
	c.Register(catalog.Implementation{
		Name: "race.Go", Abstract: "Race",
		Params: []schema.Param{schema.Scalar("water", cty.Number), schema.Scalar("temperature", cty.Number)},
		Factory: func(a *schema.Args) (any, error) {
			return &race{water: a.Number("water"), temperature: a.Number("temperature")}, nil
		},
	})
	c.Register(catalog.Implementation{
		Name: "vehicle.Car", Abstract: "Car",
		Params: []schema.Param{
			schema.Composite("engine", "Engine"),
			schema.Array("wheels", schema.Composite("", "Wheel")),
		},
		Factory: func(a *schema.Args) (any, error) {
			return &car{engine: schema.ObjectAs[*engine](a, "engine"), wheels: schema.ListAs[*wheel](a, "wheels")}, nil
		},
	})
	c.Register(catalog.Implementation{
		Name: "vehicle.V8", Abstract: "Engine",
		Params:  []schema.Param{schema.Scalar("bore", cty.Number)},
		Factory: func(a *schema.Args) (any, error) { return &engine{name: "v8", size: a.Number("bore")}, nil },
	})
	c.Register(catalog.Implementation{
		Name: "vehicle.Electric", Abstract: "Engine",
		Params: []schema.Param{schema.Scalar("power", cty.Number)},
		Factory: func(a *schema.Args) (any, error) {
			if a.Number("power") < 0 {
				return nil, errors.New("negative power")
			}
			return &engine{name: "electric", size: a.Number("power")}, nil
		},
	})
	c.Register(catalog.Implementation{
		Name: "vehicle.Wheel", Abstract: "Wheel",
		Params:  []schema.Param{schema.Scalar("pressure", cty.Number)},
		Factory: func(a *schema.Args) (any, error) { return &wheel{pressure: a.Number("pressure")}, nil },
	})
	return c
}

func nums(vs ...float64) []cty.Value {
	out := make([]cty.Value, len(vs))
	for i, v := range vs {
		out[i] = cty.NumberFloatVal(v)
	}
	return out
}

func buildRace(t *testing.T) *tree.Tree {
	t.Helper()
	tr, err := tree.Build(context.Background(), testCatalog(), "Race", tree.Bindings{
		Candidates: map[string][]cty.Value{"water": nums(1, 2, 3), "temperature": nums(20, 22)},
	})
	require.NoError(t, err)
	return tr
}

func buildCar(t *testing.T) *tree.Tree {
	t.Helper()
	tr, err := tree.Build(context.Background(), testCatalog(), "Car", tree.Bindings{
		Candidates: map[string][]cty.Value{
			"engine.bore":       nums(80, 90),
			"engine.power":      nums(100),
			"wheels[].pressure": nums(1, 2),
		},
		Lengths: map[string][]int{"wheels": {0, 2, 3}},
	})
	require.NoError(t, err)
	return tr
}

// render flattens inputs into a readable line such as `water=1 temperature=20`.
func render(fields []results.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + "=" + f.Value.String()
	}
	return strings.Join(parts, " ")
}

func collect(e *Enumerator) (keys, inputs []string) {
	for inst := range e.Produce(context.Background()) {
		keys = append(keys, inst.Selection.Key())
		inputs = append(inputs, render(inst.Inputs))
	}
	return keys, inputs
}

func TestProduceRaceOrder(t *testing.T) {
	e := New(buildRace(t), nil)

	_, inputs := collect(e)
	want := []string{
		"water=1 temperature=20",
		"water=1 temperature=22",
		"water=2 temperature=20",
		"water=2 temperature=22",
		"water=3 temperature=20",
		"water=3 temperature=22",
	}
	if diff := cmp.Diff(want, inputs); diff != "" {
		t.Errorf("enumeration order mismatch (-want +got):\n%s", diff)
	}
}

func TestProduceCountsAndUniqueness(t *testing.T) {
	tr := buildCar(t)
	e := New(tr, nil)

	keys, _ := collect(e)
	// engines 3 * wheels (1 + 2^2 + 2^3)
	require.Equal(t, "39", tr.Cardinality().String())
	require.Len(t, keys, 39)

	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "combination %s emitted twice", k)
		seen[k] = true
	}
}

func TestProduceCompositeSubtreeIsContiguous(t *testing.T) {
	e := New(buildCar(t), nil)

	var engines []string
	for inst := range e.Produce(context.Background()) {
		require.Equal(t, "engine", inst.Inputs[0].Name)
		name := inst.Inputs[0].Value.Str()
		if len(engines) == 0 || engines[len(engines)-1] != name {
			engines = append(engines, name)
		}
	}
	assert.Equal(t, []string{"vehicle.Electric", "vehicle.V8"}, engines, "implementations must not interleave")
}

func TestProduceArrayInputs(t *testing.T) {
	e := New(buildCar(t), nil)

	var first, withWheels []string
	for inst := range e.Produce(context.Background()) {
		line := render(inst.Inputs)
		if first == nil {
			first = []string{line}
		}
		if strings.Contains(line, "wheels=2") && withWheels == nil {
			withWheels = []string{line}
		}
	}
	assert.Equal(t, []string{`engine="vehicle.Electric" engine.power=100 wheels=0`}, first)
	assert.Equal(t, []string{`engine="vehicle.Electric" engine.power=100 wheels=2 wheels[0]="vehicle.Wheel" wheels[0].pressure=1 wheels[1]="vehicle.Wheel" wheels[1].pressure=1`}, withWheels)
}

func TestProduceIsDeterministicAndCacheTransparent(t *testing.T) {
	e := New(buildCar(t), nil)

	keys1, inputs1 := collect(e)
	hitsAfterFirst := e.Stats().CacheHits
	assert.Greater(t, hitsAfterFirst, 0, "sibling iterations should replay memoized lists")

	keys2, inputs2 := collect(e)
	assert.Equal(t, keys1, keys2)
	assert.Equal(t, inputs1, inputs2)
	assert.Greater(t, e.Stats().CacheHits, hitsAfterFirst)

	e.ClearCaches()
	keys3, inputs3 := collect(e)
	assert.Equal(t, keys1, keys3)
	assert.Equal(t, inputs1, inputs3)

	uncached := New(buildCar(t), nil, WithCacheLimit(0))
	keys4, inputs4 := collect(uncached)
	assert.Equal(t, keys1, keys4)
	assert.Equal(t, inputs1, inputs4)
	assert.Zero(t, uncached.Stats().CacheHits)

	tiny := New(buildCar(t), nil, WithCacheLimit(2))
	keys5, _ := collect(tiny)
	assert.Equal(t, keys1, keys5)
}

func TestRebindInvalidatesCache(t *testing.T) {
	tr := buildRace(t)
	e := New(tr, nil)
	_, before := collect(e)
	require.Len(t, before, 6)

	require.NoError(t, tr.Rebind(context.Background(), "temperature", nums(30)))
	_, after := collect(e)
	assert.Equal(t, []string{
		"water=1 temperature=30",
		"water=2 temperature=30",
		"water=3 temperature=30",
	}, after)
}

func TestProduceEarlyBreakDoesNotPoisonCache(t *testing.T) {
	e := New(buildCar(t), nil)
	n := 0
	for range e.Produce(context.Background()) {
		n++
		if n == 7 {
			break
		}
	}
	keys, _ := collect(e)
	assert.Len(t, keys, 39)
}

func TestMaterializeBuildsFreshObjects(t *testing.T) {
	e := New(buildCar(t), nil)

	var cars []*car
	for inst := range e.Produce(context.Background()) {
		require.NoError(t, inst.Err)
		c, ok := inst.Object.(*car)
		require.True(t, ok)
		cars = append(cars, c)
	}
	require.Len(t, cars, 39)
	assert.Equal(t, "electric", cars[0].engine.name)
	assert.Empty(t, cars[0].wheels)
	assert.NotSame(t, cars[0].engine, cars[1].engine, "sub-objects are rebuilt per combination")
	assert.Equal(t, cars[0].engine, cars[1].engine)
	last := cars[len(cars)-1]
	assert.Equal(t, 90.0, last.engine.size)
	require.Len(t, last.wheels, 3)
	assert.Equal(t, 2.0, last.wheels[2].pressure)
}

func TestMaterializeReportsFactoryErrors(t *testing.T) {
	tr, err := tree.Build(context.Background(), testCatalog(), "Car", tree.Bindings{
		Candidates:      map[string][]cty.Value{"engine.power": nums(-1), "wheels[].pressure": nums(1)},
		Implementations: map[string][]string{"engine": {"vehicle.Electric"}},
		Lengths:         map[string][]int{"wheels": {1}},
	})
	require.NoError(t, err)

	for inst := range New(tr, nil).Produce(context.Background()) {
		assert.Nil(t, inst.Object)
		require.Error(t, inst.Err)
		assert.Contains(t, inst.Err.Error(), "build vehicle.Electric at engine: negative power")
	}
}

type recordingHooks struct {
	events  []string
	fail    map[int]error
	panicAt int
	onIter  func(inst *Instance)
	cleared int
}

func (h *recordingHooks) BeforeIteration(context.Context) { h.events = append(h.events, "before") }
func (h *recordingHooks) AfterIteration(context.Context)  { h.events = append(h.events, "after") }

func (h *recordingHooks) Iterating(_ context.Context, inst *Instance) error {
	h.events = append(h.events, fmt.Sprintf("iter %d", inst.Index))
	if h.onIter != nil {
		h.onIter(inst)
	}
	if inst.Index == h.panicAt {
		panic("kaboom")
	}
	return h.fail[inst.Index]
}

func (h *recordingHooks) IterationFailed(_ context.Context, inst *Instance, err error) {
	h.events = append(h.events, fmt.Sprintf("failed %d: %s", inst.Index, strings.SplitN(err.Error(), "\n", 2)[0]))
}

func (h *recordingHooks) ClearEnumerationResults(context.Context) { h.cleared++ }

func TestRunIsolatesFailures(t *testing.T) {
	hooks := &recordingHooks{fail: map[int]error{1: errors.New("bad")}, panicAt: 3}
	e := New(buildRace(t), hooks)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, []string{
		"before",
		"iter 0",
		"iter 1",
		"failed 1: bad",
		"iter 2",
		"iter 3",
		"failed 3: computation panic (water=2, temperature=22): kaboom",
		"iter 4",
		"iter 5",
		"after",
	}, hooks.events)

	stats := e.Stats()
	assert.Equal(t, 6, stats.Produced)
	assert.Equal(t, 2, stats.Failed)

	e.ClearEnumerationResults(context.Background())
	assert.Equal(t, 1, hooks.cleared)
	assert.Zero(t, e.Stats().Produced)
	assert.Equal(t, stats.CacheHits, e.Stats().CacheHits, "clearing results keeps cache counters")
}

func TestRunAbortAfterK(t *testing.T) {
	for k := 1; k <= 6; k++ {
		t.Run(fmt.Sprintf("abort after %d", k), func(t *testing.T) {
			g := gate.New()
			hooks := &recordingHooks{panicAt: -1}
			hooks.onIter = func(inst *Instance) {
				if inst.Index == k-1 {
					g.Abort()
				} else {
					g.Release()
				}
			}
			e := New(buildRace(t), hooks, WithGate(g))
			require.Same(t, g, e.ObjectToWaitFor())

			err := e.Run(context.Background())
			iterations := 0
			for _, ev := range hooks.events {
				if strings.HasPrefix(ev, "iter") {
					iterations++
				}
			}
			assert.Equal(t, k, iterations)
			assert.Equal(t, "after", hooks.events[len(hooks.events)-1])

			if k == 6 {
				require.NoError(t, err, "abort after the last combination is never observed")
				return
			}
			var sig *sweeperr.CancellationSignal
			require.True(t, errors.As(err, &sig))
			assert.Equal(t, k, sig.After)
			assert.ErrorIs(t, err, gate.ErrAborted)
		})
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hooks := &recordingHooks{panicAt: -1}
	hooks.onIter = func(inst *Instance) {
		if inst.Index == 2 {
			cancel()
		}
	}
	e := New(buildRace(t), hooks)

	err := e.Run(ctx)
	var sig *sweeperr.CancellationSignal
	require.True(t, errors.As(err, &sig))
	assert.Equal(t, 3, sig.After)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithoutHooks(t *testing.T) {
	assert.Error(t, New(buildRace(t), nil).Run(context.Background()))
	assert.Nil(t, New(buildRace(t), nil).ObjectToWaitFor())
}
