// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package results

import (
	"errors"
	"sync"
)

// ErrSinkClosed is returned by Record once the combination a sink belongs to
// has been finalized, e.g. after its computation timed out.
var ErrSinkClosed = errors.New("results sink is closed")

// Sink is handed to a computation for exactly one combination. Record
// buffers data points carrying that combination's inputs; they reach the
// collector only through Commit, so a combination that fails after recording
// leaves nothing but its failure point behind.
type Sink struct {
	collector *Collector
	inputs    []Field

	mu      sync.Mutex
	pending []DataPoint
	closed  bool
}

// NewSink binds a sink to the collector and the combination's inputs.
func NewSink(c *Collector, inputs []Field) *Sink {
	return &Sink{collector: c, inputs: inputs}
}

// Inputs returns the input properties of the combination being computed.
func (s *Sink) Inputs() []Field {
	out := make([]Field, len(s.inputs))
	copy(out, s.inputs)
	return out
}

// Input looks up one input property by name.
func (s *Sink) Input(name string) (Value, bool) {
	return lookup(s.inputs, name)
}

// Record buffers a successful data point with the given results.
func (s *Sink) Record(results ...Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.pending = append(s.pending, DataPoint{Inputs: s.inputs, Results: results}.clone())
	return nil
}

// Commit appends the buffered points to the collector and closes the sink.
// It returns how many points were appended; a closed sink commits nothing.
func (s *Sink) Commit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.closed = true
	for _, dp := range s.pending {
		s.collector.Append(dp)
	}
	n := len(s.pending)
	s.pending = nil
	return n
}

// Fail discards anything buffered, closes the sink and appends a single
// failure data point.
func (s *Sink) Fail(kind string, err error) DataPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = nil
	return s.collector.Append(DataPoint{
		Inputs:    s.inputs,
		Failed:    true,
		ErrorKind: kind,
		Error:     err.Error(),
	})
}

// Close drops the buffer and rejects further Record calls.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = nil
}

// Recorded returns how many data points are buffered and not yet committed.
func (s *Sink) Recorded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
