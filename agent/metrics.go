package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "abilityc"

// Metrics are the compile pipeline's counters. A nil *Metrics records nothing.
type Metrics struct {
	Attempts     *prometheus.CounterVec
	Fallbacks    prometheus.Counter
	Compiles     *prometheus.CounterVec
	ModelLatency *prometheus.HistogramVec
	CacheLookups *prometheus.CounterVec
}

// NewMetrics registers the metrics on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_attempts_total",
			Help:      "Model attempts by outcome (ok, send, validate, render, sandbox).",
		}, []string{"outcome"}),
		Fallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heuristic_fallbacks_total",
			Help:      "Compiles that exhausted model attempts and fell back to the heuristic plan.",
		}),
		Compiles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compiles_total",
			Help:      "Finished compiles by path (model, heuristic, fallback, failed).",
		}, []string{"path"}),
		ModelLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Latency of uncached model requests.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"model"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
	}
}

// Attempt counts one model attempt ending in outcome.
func (m *Metrics) Attempt(outcome string) {
	if m != nil {
		m.Attempts.WithLabelValues(outcome).Inc()
	}
}

// Fallback counts one heuristic fallback.
func (m *Metrics) Fallback() {
	if m != nil {
		m.Fallbacks.Inc()
	}
}

// Compile counts one finished compile.
func (m *Metrics) Compile(path string) {
	if m != nil {
		m.Compiles.WithLabelValues(path).Inc()
	}
}

func (m *Metrics) latency(model string, seconds float64) {
	if m != nil {
		m.ModelLatency.WithLabelValues(model).Observe(seconds)
	}
}

func (m *Metrics) lookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
