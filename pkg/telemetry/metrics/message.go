package metrics

import (
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// MessageMetrics tracks relayed messages per direction.
//
// Metrics:
//   - <ns>_messages_relayed_total{direction}
//   - <ns>_message_size_bytes{direction}
//   - <ns>_messages_rejected_total{direction}
//   - <ns>_relay_transient_errors_total{direction}
type MessageMetrics struct {
	relayed   *prometheus.CounterVec
	size      *prometheus.HistogramVec
	rejected  *prometheus.CounterVec
	transient *prometheus.CounterVec
}

// NewMessageMetrics creates and registers message metrics with the provided registry.
func NewMessageMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *MessageMetrics {
	mm := &MessageMetrics{
		relayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "messages_relayed_total",
				Help:      "Total number of messages forwarded by direction",
			},
			[]string{"direction"},
		),

		size: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "message_size_bytes",
				Help:      "Size of forwarded messages in bytes",
				Buckets:   cfg.MessageSizeBuckets,
			},
			[]string{"direction"},
		),

		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "messages_rejected_total",
				Help:      "Total number of messages rejected as invalid JSON",
			},
			[]string{"direction"},
		),

		transient: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "relay_transient_errors_total",
				Help:      "Total number of per-message errors that did not stop the relay",
			},
			[]string{"direction"},
		),
	}

	registry.MustRegister(mm.relayed, mm.size, mm.rejected, mm.transient)
	return mm
}
