// Package vehicle provides a small car model that exercises every parameter
// kind: the engine is a composite, the wheels an array, the driver mass a
// scalar with a default.
package vehicle

import (
	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the catalog.Module interface for this package.
type Module struct{}

// Register registers the car, its engines and its wheel.
func (m *Module) Register(c *catalog.Catalog) {
	c.Register(catalog.Implementation{
		Name:        "vehicle.Car",
		Abstract:    "Car",
		Description: "Road car scored on mass and acceleration.",
		Params: []schema.Param{
			schema.Composite("engine", "Engine"),
			schema.Array("wheels", schema.Composite("", "Wheel")),
			schema.Scalar("driver_mass", cty.Number, cty.NumberIntVal(75)).Describe("Driver mass in kg."),
		},
		Factory: newCar,
	})
	c.Register(catalog.Implementation{
		Name:        "vehicle.V8",
		Abstract:    "Engine",
		Description: "Naturally aspirated eight cylinder engine.",
		Params: []schema.Param{
			schema.Scalar("bore", cty.Number).Describe("Cylinder bore in mm."),
			schema.Scalar("stroke", cty.Number, cty.NumberIntVal(86)).Describe("Piston stroke in mm."),
		},
		Factory: newV8,
	})
	c.Register(catalog.Implementation{
		Name:        "vehicle.Electric",
		Abstract:    "Engine",
		Description: "Battery electric drive.",
		Params: []schema.Param{
			schema.Scalar("power", cty.Number).Describe("Motor power in kW."),
			schema.Scalar("battery", cty.Number, cty.NumberIntVal(60)).Describe("Battery capacity in kWh."),
		},
		Factory: newElectric,
	})
	c.Register(catalog.Implementation{
		Name:        "vehicle.Wheel",
		Abstract:    "Wheel",
		Description: "Pneumatic road wheel.",
		Params: []schema.Param{
			schema.Scalar("pressure", cty.Number).Describe("Tyre pressure in bar."),
		},
		Factory: newWheel,
	})
}
