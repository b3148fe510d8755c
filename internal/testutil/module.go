package testutil

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/executor"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// CounterModule registers "test.Counter", an implementation of the abstract
// type Counter with a single number parameter x. Each call records
// double = 2x and counts itself in Calls.
type CounterModule struct {
	// Delay is slept before recording, honoring cancellation.
	Delay time.Duration
	Calls atomic.Int64
}

// Register implements the catalog.Module interface.
func (m *CounterModule) Register(c *catalog.Catalog) {
	c.Register(catalog.Implementation{
		Name:        "test.Counter",
		Abstract:    "Counter",
		Description: "Doubles x",
		Params:      []schema.Param{schema.Scalar("x", cty.Number)},
		Factory: func(args *schema.Args) (any, error) {
			x := args.Number("x")
			return executor.ComputationFunc(func(ctx context.Context, sink *results.Sink, _ display.Display) error {
				m.Calls.Add(1)
				if m.Delay > 0 {
					select {
					case <-time.After(m.Delay):
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				return sink.Record(results.F("double", results.Number(2*x)))
			}), nil
		},
	})
}
