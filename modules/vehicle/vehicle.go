package vehicle

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/schema"
)

const (
	chassisMass = 900.0 // kg
	wheelMass   = 12.0  // kg
	drivetrain  = 0.75  // share of engine power reaching the road
	speed100    = 100 / 3.6
)

// ErrTooFewWheels is returned by Car.Run for cars that cannot stand.
var ErrTooFewWheels = errors.New("a car needs at least 3 wheels")

// Engine is implemented by every engine type.
type Engine interface {
	PowerKW() float64
	MassKG() float64
}

// V8 derives its power from displacement.
type V8 struct {
	Bore   float64
	Stroke float64
}

// Displacement returns the swept volume in litres.
func (e *V8) Displacement() float64 {
	return 8 * math.Pi / 4 * e.Bore * e.Bore * e.Stroke / 1e6
}

func (e *V8) PowerKW() float64 { return e.Displacement() * 60 }
func (e *V8) MassKG() float64  { return 180 }

// Electric carries its battery as mass.
type Electric struct {
	Power   float64
	Battery float64
}

func (e *Electric) PowerKW() float64 { return e.Power }
func (e *Electric) MassKG() float64  { return 80 + e.Battery*6 }

// Wheel contributes rolling resistance.
type Wheel struct {
	Pressure float64
}

// RollingResistance returns the rolling resistance coefficient.
func (w *Wheel) RollingResistance() float64 {
	return 0.005 + 0.01/w.Pressure
}

// Car is the computation of the Car type.
type Car struct {
	Engine     Engine
	Wheels     []*Wheel
	DriverMass float64
}

// Mass returns the total mass in kg.
func (c *Car) Mass() float64 {
	return chassisMass + c.Engine.MassKG() + float64(len(c.Wheels))*wheelMass + c.DriverMass
}

// Run records mass, power to weight, mean rolling resistance and the 0-100
// km/h time.
func (c *Car) Run(ctx context.Context, sink *results.Sink, d display.Display) error {
	if len(c.Wheels) < 3 {
		return fmt.Errorf("%w, got %d", ErrTooFewWheels, len(c.Wheels))
	}

	crr := 0.0
	for _, w := range c.Wheels {
		crr += w.RollingResistance()
	}
	crr /= float64(len(c.Wheels))

	mass := c.Mass()
	power := c.Engine.PowerKW() * 1000
	accel := (mass * speed100 * speed100 / 2) / (power * drivetrain) * (1 + crr*10)

	d.Note(ctx, "Car evaluated.", "mass", mass, "power_kw", c.Engine.PowerKW())
	return sink.Record(
		results.F("mass", results.Number(mass)),
		results.F("power_to_weight", results.Number(power/mass)),
		results.F("rolling_resistance", results.Number(crr)),
		results.F("accel_0_100", results.Number(accel)),
	)
}

func newCar(args *schema.Args) (any, error) {
	car := &Car{
		Engine:     schema.ObjectAs[Engine](args, "engine"),
		Wheels:     schema.ListAs[*Wheel](args, "wheels"),
		DriverMass: args.Number("driver_mass"),
	}
	if car.DriverMass < 0 {
		return nil, fmt.Errorf("driver mass must not be negative, got %g", car.DriverMass)
	}
	return car, nil
}

func newV8(args *schema.Args) (any, error) {
	e := &V8{Bore: args.Number("bore"), Stroke: args.Number("stroke")}
	if e.Bore <= 0 || e.Stroke <= 0 {
		return nil, fmt.Errorf("bore and stroke must be positive, got %g and %g", e.Bore, e.Stroke)
	}
	return e, nil
}

func newElectric(args *schema.Args) (any, error) {
	e := &Electric{Power: args.Number("power"), Battery: args.Number("battery")}
	if e.Power <= 0 {
		return nil, fmt.Errorf("power must be positive, got %g", e.Power)
	}
	return e, nil
}

func newWheel(args *schema.Args) (any, error) {
	w := &Wheel{Pressure: args.Number("pressure")}
	if w.Pressure <= 0 {
		return nil, fmt.Errorf("pressure must be positive, got %g", w.Pressure)
	}
	return w, nil
}
