// Package race provides the Race benchmark: a score surface over water and
// temperature with two deliberately undefined points.
package race

import (
	"context"
	"math"

	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the catalog.Module interface for this package.
type Module struct{}

// Race is the `race.Go` implementation of the Race type.
type Race struct {
	Water       float64
	Temperature float64
}

// Score evaluates (−w²+12w)(−t²+28t+8). The points (1,20) and (3,22) are
// undefined and yield NaN.
func Score(water, temperature float64) float64 {
	if (water == 1 && temperature == 20) || (water == 3 && temperature == 22) {
		return math.NaN()
	}
	return (-water*water + 12*water) * (-temperature*temperature + 28*temperature + 8)
}

// Run records the score of one combination.
func (r *Race) Run(ctx context.Context, sink *results.Sink, d display.Display) error {
	score := Score(r.Water, r.Temperature)
	if math.IsNaN(score) {
		d.Note(ctx, "Race score undefined.", "water", r.Water, "temperature", r.Temperature)
	}
	return sink.Record(results.F("score", results.Number(score)))
}

// Register registers the implementation with the catalog.
func (m *Module) Register(c *catalog.Catalog) {
	c.Register(catalog.Implementation{
		Name:        "race.Go",
		Abstract:    "Race",
		Description: "Score surface over water and temperature.",
		Params: []schema.Param{
			schema.Scalar("water", cty.Number).Describe("Amount of water."),
			schema.Scalar("temperature", cty.Number).Describe("Ambient temperature."),
		},
		Factory: func(args *schema.Args) (any, error) {
			return &Race{Water: args.Number("water"), Temperature: args.Number("temperature")}, nil
		},
	})
}
