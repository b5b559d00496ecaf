package metrics

import (
	"time"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric exported by the relay. It satisfies
// the session observer interface of the proxy package, so the relay core
// records metrics without importing Prometheus.
//
// All label values are drawn from small fixed sets (outcomes, directions,
// failure kinds), so no cardinality limiting is needed.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	sessions *SessionMetrics
	upstream *UpstreamMetrics
	messages *MessageMetrics
	tls      *TLSMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "gemini_relay"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}
	if len(cfg.MessageSizeBuckets) == 0 {
		cfg.MessageSizeBuckets = append([]float64(nil), config.DefaultMessageSizeBuckets...)
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		sessions: NewSessionMetrics(cfg, registry),
		upstream: NewUpstreamMetrics(cfg, registry),
		messages: NewMessageMetrics(cfg, registry),
		tls:      NewTLSMetrics(cfg, registry),
	}
}

// SessionStarted records an accepted client connection.
func (c *Collector) SessionStarted() {
	if !c.config.Enabled {
		return
	}
	c.sessions.active.Inc()
}

// SessionEnded records a finished session and how it ended.
//
// Parameters:
//   - outcome: "completed", "auth_failed", "connect_failed", "invalid_format", "error" or "shutdown"
//   - duration: time from accept to teardown
func (c *Collector) SessionEnded(outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.sessions.active.Dec()
	c.sessions.total.WithLabelValues(outcome).Inc()
	c.sessions.duration.Observe(duration.Seconds())
}

// AuthFailed records an authentication failure by reason
// ("timeout", "invalid_json", "missing_token").
func (c *Collector) AuthFailed(reason string) {
	if !c.config.Enabled {
		return
	}
	c.sessions.authFailures.WithLabelValues(reason).Inc()
}

// UpstreamConnected records a successful upstream handshake.
func (c *Collector) UpstreamConnected(duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.upstream.RecordConnect("success", duration)
}

// UpstreamFailed records a failed upstream handshake by kind
// ("connect_failed", "closed_with_error").
func (c *Collector) UpstreamFailed(kind string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.upstream.RecordConnect(kind, duration)
}

// MessageRelayed records a message forwarded in direction.
func (c *Collector) MessageRelayed(direction string, size int) {
	if !c.config.Enabled {
		return
	}
	c.messages.relayed.WithLabelValues(direction).Inc()
	c.messages.size.WithLabelValues(direction).Observe(float64(size))
}

// MessageRejected records a message dropped because it was not valid JSON.
func (c *Collector) MessageRejected(direction string) {
	if !c.config.Enabled {
		return
	}
	c.messages.rejected.WithLabelValues(direction).Inc()
}

// TransientError records a per-message failure that did not end the loop.
func (c *Collector) TransientError(direction string) {
	if !c.config.Enabled {
		return
	}
	c.messages.transient.WithLabelValues(direction).Inc()
}

// SetCertificateExpiry records the time remaining before the serving
// certificate expires.
func (c *Collector) SetCertificateExpiry(remaining time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.tls.expiry.Set(remaining.Seconds())
}

// CertificateReloaded records a certificate reload attempt.
func (c *Collector) CertificateReloaded(err error) {
	if !c.config.Enabled {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.tls.reloads.WithLabelValues(result).Inc()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
