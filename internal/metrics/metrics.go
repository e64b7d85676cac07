// Package metrics counts batch outcomes in a Prometheus registry. A batch
// job is short-lived, so the registry is written to a node_exporter textfile
// at the end of a run instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/emetrics/populate/pkg/errors"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry      *prometheus.Registry
	entities      *prometheus.CounterVec
	sourceFailure *prometheus.CounterVec
	modelCalls    *prometheus.CounterVec
	modelDuration prometheus.Histogram
	lastRun       prometheus.Gauge
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "populate_entities_total",
			Help: "Entities processed, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		sourceFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "populate_source_failures_total",
			Help: "Failed external source lookups, by source.",
		}, []string{"source"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "populate_model_calls_total",
			Help: "Generative model calls, by outcome.",
		}, []string{"outcome"}),
		modelDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "populate_model_call_duration_seconds",
			Help:    "Latency of generative model calls.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "populate_last_run_timestamp_seconds",
			Help: "Unix time the last batch run finished.",
		}),
	}
	m.registry.MustRegister(m.entities, m.sourceFailure, m.modelCalls, m.modelDuration, m.lastRun)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Entity counts one per-entity outcome.
func (m *Metrics) Entity(operation, outcome string) {
	m.entities.WithLabelValues(operation, outcome).Inc()
}

// SourceFailure implements sources.FailureRecorder.
func (m *Metrics) SourceFailure(source string) {
	m.sourceFailure.WithLabelValues(source).Inc()
}

// ModelCall implements llm.Recorder.
func (m *Metrics) ModelCall(outcome string, elapsed time.Duration) {
	m.modelCalls.WithLabelValues(outcome).Inc()
	m.modelDuration.Observe(elapsed.Seconds())
}

// RunFinished stamps the completion time of a batch.
func (m *Metrics) RunFinished(at time.Time) {
	m.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in text exposition format, atomically
// replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
