package metrics

import (
	"time"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks outbound connection attempts.
//
// Metrics:
//   - <ns>_upstream_connect_total{result}
//   - <ns>_upstream_connect_duration_seconds{result}
type UpstreamMetrics struct {
	connects *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		connects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_connect_total",
				Help:      "Total number of upstream connection attempts by result",
			},
			[]string{"result"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_connect_duration_seconds",
				Help:      "Duration of upstream opening handshakes in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(um.connects, um.duration)
	return um
}

// RecordConnect records one connection attempt.
func (um *UpstreamMetrics) RecordConnect(result string, duration time.Duration) {
	um.connects.WithLabelValues(result).Inc()
	um.duration.WithLabelValues(result).Observe(duration.Seconds())
}
