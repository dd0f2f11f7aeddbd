// Package metrics exposes Prometheus instruments for the synthesis cache.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tts"

type Metrics struct {
	lookups          *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	artifactBytes    prometheus.Histogram
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Synthesis requests by cache outcome (hit, miss, shared, error).",
		}, []string{"outcome"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "Latency of synthesis provider calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider", "result"}),
		artifactBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of committed audio artifacts.",
			Buckets:   prometheus.ExponentialBuckets(4096, 2, 10),
		}),
	}
	reg.MustRegister(m.lookups, m.providerDuration, m.artifactBytes)
	return m
}

func (m *Metrics) Lookup(outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ProviderCall(provider, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerDuration.WithLabelValues(provider, result).Observe(d.Seconds())
}

func (m *Metrics) Committed(size int) {
	if m == nil {
		return
	}
	m.artifactBytes.Observe(float64(size))
}
