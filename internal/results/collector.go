// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package results

import (
	"slices"
	"sync"
)

// Collector is the append-only, ordered collection of data points produced by
// one sweep. It is meant to have exactly one writer; the lock only makes it
// safe to take views while that writer is active.
type Collector struct {
	id string

	mu     sync.RWMutex
	points []DataPoint
}

// NewCollector creates an empty collector tagged with the sweep identifier.
func NewCollector(id string) *Collector {
	return &Collector{id: id}
}

// ID returns the sweep identifier the collector was created for.
func (c *Collector) ID() string {
	return c.id
}

// Append stores a copy of dp, assigning it the next index, and returns the
// stored record.
func (c *Collector) Append(dp DataPoint) DataPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	dp = dp.clone()
	dp.Index = len(c.points)
	c.points = append(c.points, dp)
	return dp
}

// Len returns the number of appended data points.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.points)
}

// View returns a read-only snapshot of the collector.
func (c *Collector) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return View{id: c.id, points: slices.Clone(c.points)}
}

// View is a read-only snapshot handed to displays and codecs.
type View struct {
	id     string
	points []DataPoint
}

// NewView builds a view over already decoded data points, e.g. by a codec.
func NewView(id string, points []DataPoint) View {
	return View{id: id, points: slices.Clone(points)}
}

func (v View) ID() string { return v.id }
func (v View) Len() int   { return len(v.points) }

// At returns a copy of the i-th data point.
func (v View) At(i int) DataPoint {
	return v.points[i].clone()
}

// Points returns copies of every data point in order.
func (v View) Points() []DataPoint {
	out := make([]DataPoint, len(v.points))
	for i, dp := range v.points {
		out[i] = dp.clone()
	}
	return out
}

// Failures counts failed data points.
func (v View) Failures() int {
	n := 0
	for _, dp := range v.points {
		if dp.Failed {
			n++
		}
	}
	return n
}

// Columns returns the input names followed by the result names, each in first
// appearance order across the whole view.
func (v View) Columns() (inputs, results []string) {
	seenIn := map[string]bool{}
	seenOut := map[string]bool{}
	for _, dp := range v.points {
		for _, f := range dp.Inputs {
			if !seenIn[f.Name] {
				seenIn[f.Name] = true
				inputs = append(inputs, f.Name)
			}
		}
		for _, f := range dp.Results {
			if !seenOut[f.Name] {
				seenOut[f.Name] = true
				results = append(results, f.Name)
			}
		}
	}
	return inputs, results
}

// Collector rebuilds an append-only collector holding the view's points.
func (v View) Collector() *Collector {
	c := NewCollector(v.id)
	for _, dp := range v.points {
		c.Append(dp)
	}
	return c
}
