package metrics

import (
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics tracks the lifecycle of client sessions.
//
// Metrics:
//   - <ns>_sessions_total{outcome}
//   - <ns>_sessions_active
//   - <ns>_session_duration_seconds
//   - <ns>_auth_failures_total{reason}
type SessionMetrics struct {
	total        *prometheus.CounterVec
	active       prometheus.Gauge
	duration     prometheus.Histogram
	authFailures *prometheus.CounterVec
}

// NewSessionMetrics creates and registers session metrics with the provided registry.
func NewSessionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SessionMetrics {
	sm := &SessionMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sessions_total",
				Help:      "Total number of finished client sessions by outcome",
			},
			[]string{"outcome"},
		),

		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sessions_active",
				Help:      "Number of client sessions currently open",
			},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "session_duration_seconds",
				Help:      "Duration of client sessions from accept to teardown",
				Buckets:   cfg.DurationBuckets,
			},
		),

		authFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "auth_failures_total",
				Help:      "Total number of failed authentication handshakes by reason",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(sm.total, sm.active, sm.duration, sm.authFailures)
	return sm
}
