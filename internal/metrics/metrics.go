// Package metrics exposes sweep progress as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values of the combinations counter.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Metrics groups the collectors of one process. All methods are safe on a
// nil receiver, which disables instrumentation.
type Metrics struct {
	combinations *prometheus.CounterVec
	failures     *prometheus.CounterVec
	duration     prometheus.Histogram
	cache        *prometheus.CounterVec
	running      prometheus.Gauge
	planned      prometheus.Gauge
}

// New registers the sweep collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		combinations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gridsweep_combinations_total",
			Help: "Combinations executed, by status.",
		}, []string{"status"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gridsweep_combination_failures_total",
			Help: "Failed combinations, by failure kind.",
		}, []string{"kind"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridsweep_combination_duration_seconds",
			Help:    "Time spent computing one combination.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gridsweep_enumeration_cache_total",
			Help: "Memoization lookups during enumeration, by result.",
		}, []string{"result"}),
		running: f.NewGauge(prometheus.GaugeOpts{
			Name: "gridsweep_sweeps_running",
			Help: "Sweeps currently executing.",
		}),
		planned: f.NewGauge(prometheus.GaugeOpts{
			Name: "gridsweep_sweep_planned_combinations",
			Help: "Combinations in the space of the most recent sweep.",
		}),
	}
}

// SweepStarted records the start of a sweep over the given number of
// combinations.
func (m *Metrics) SweepStarted(planned float64) {
	if m == nil {
		return
	}
	m.running.Inc()
	m.planned.Set(planned)
}

// SweepFinished records the end of a sweep and its memoization counters.
func (m *Metrics) SweepFinished(cacheHits, cacheMisses int) {
	if m == nil {
		return
	}
	m.running.Dec()
	m.cache.WithLabelValues("hit").Add(float64(cacheHits))
	m.cache.WithLabelValues("miss").Add(float64(cacheMisses))
}

// Combination records one executed combination.
func (m *Metrics) Combination(elapsed time.Duration, failureKind string) {
	if m == nil {
		return
	}
	m.duration.Observe(elapsed.Seconds())
	if failureKind == "" {
		m.combinations.WithLabelValues(StatusOK).Inc()
		return
	}
	m.combinations.WithLabelValues(StatusFailed).Inc()
	m.failures.WithLabelValues(failureKind).Inc()
}
