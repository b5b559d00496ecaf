package metrics

import (
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// TLSMetrics tracks the serving certificate.
//
// Metrics:
//   - <ns>_tls_certificate_expiry_seconds
//   - <ns>_tls_certificate_reloads_total{result}
type TLSMetrics struct {
	expiry  prometheus.Gauge
	reloads *prometheus.CounterVec
}

// NewTLSMetrics creates and registers TLS metrics with the provided registry.
func NewTLSMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *TLSMetrics {
	tm := &TLSMetrics{
		expiry: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tls_certificate_expiry_seconds",
				Help:      "Seconds until the serving certificate expires",
			},
		),

		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tls_certificate_reloads_total",
				Help:      "Total number of certificate reload attempts by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(tm.expiry, tm.reloads)
	return tm
}
