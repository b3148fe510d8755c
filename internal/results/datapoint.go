// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package results

import "slices"

// Field is one named property of a data point.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for building a Field.
func F(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

// DataPoint is the record of one combination: its input properties in
// parameter order and the result properties in the order the computation
// reported them. A failed combination carries no results but names the
// failure.
type DataPoint struct {
	Index     int
	Inputs    []Field
	Results   []Field
	Failed    bool
	ErrorKind string
	Error     string
}

// Input looks up an input property by name.
func (dp DataPoint) Input(name string) (Value, bool) {
	return lookup(dp.Inputs, name)
}

// Result looks up a result property by name.
func (dp DataPoint) Result(name string) (Value, bool) {
	return lookup(dp.Results, name)
}

func (dp DataPoint) clone() DataPoint {
	dp.Inputs = slices.Clone(dp.Inputs)
	dp.Results = slices.Clone(dp.Results)
	return dp
}

func lookup(fields []Field, name string) (Value, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}
