package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:            true,
		Namespace:          "test",
		Subsystem:          "relay",
		DurationBuckets:    []float64{0.1, 1, 10},
		MessageSizeBuckets: []float64{64, 1024},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.Registry() != registry {
		t.Error("collector registry not set correctly")
	}
}

func TestCollector_NewCollectorDefaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	collector := NewCollector(cfg, nil)

	if collector.Registry() == nil {
		t.Fatal("expected a registry to be created")
	}
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected default namespace, got %q", cfg.Namespace)
	}
	if len(cfg.DurationBuckets) == 0 || len(cfg.MessageSizeBuckets) == 0 {
		t.Error("expected default buckets")
	}
}

func TestCollector_SessionLifecycle(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.SessionStarted()
	collector.SessionStarted()
	if got := testutil.ToFloat64(collector.sessions.active); got != 2 {
		t.Errorf("expected 2 active sessions, got %v", got)
	}

	collector.SessionEnded("completed", time.Second)
	collector.AuthFailed("timeout")
	collector.SessionEnded("auth_failed", 30*time.Second)

	if got := testutil.ToFloat64(collector.sessions.active); got != 0 {
		t.Errorf("expected 0 active sessions, got %v", got)
	}
	if got := testutil.ToFloat64(collector.sessions.total.WithLabelValues("completed")); got != 1 {
		t.Errorf("expected 1 completed session, got %v", got)
	}
	if got := testutil.ToFloat64(collector.sessions.authFailures.WithLabelValues("timeout")); got != 1 {
		t.Errorf("expected 1 auth timeout, got %v", got)
	}
	if got := testutil.CollectAndCount(collector.sessions.duration); got != 1 {
		t.Errorf("expected 1 duration series, got %d", got)
	}
}

func TestCollector_Upstream(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.UpstreamConnected(50 * time.Millisecond)
	collector.UpstreamFailed("connect_failed", time.Second)
	collector.UpstreamFailed("connect_failed", time.Second)

	if got := testutil.ToFloat64(collector.upstream.connects.WithLabelValues("success")); got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(collector.upstream.connects.WithLabelValues("connect_failed")); got != 2 {
		t.Errorf("expected 2 failures, got %v", got)
	}
}

func TestCollector_Messages(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.MessageRelayed("client_to_upstream", 20)
	collector.MessageRelayed("client_to_upstream", 2000)
	collector.MessageRelayed("upstream_to_client", 10)
	collector.MessageRejected("client_to_upstream")
	collector.TransientError("upstream_to_client")

	if got := testutil.ToFloat64(collector.messages.relayed.WithLabelValues("client_to_upstream")); got != 2 {
		t.Errorf("expected 2 upstream-bound messages, got %v", got)
	}
	if got := testutil.ToFloat64(collector.messages.rejected.WithLabelValues("client_to_upstream")); got != 1 {
		t.Errorf("expected 1 rejected message, got %v", got)
	}
	if got := testutil.ToFloat64(collector.messages.transient.WithLabelValues("upstream_to_client")); got != 1 {
		t.Errorf("expected 1 transient error, got %v", got)
	}
	if got := testutil.CollectAndCount(collector.messages.size); got != 2 {
		t.Errorf("expected 2 size series, got %d", got)
	}
}

func TestCollector_TLS(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.SetCertificateExpiry(2 * time.Hour)
	collector.CertificateReloaded(nil)
	collector.CertificateReloaded(errors.New("bad pem"))

	if got := testutil.ToFloat64(collector.tls.expiry); got != 7200 {
		t.Errorf("expected 7200s expiry, got %v", got)
	}
	if got := testutil.ToFloat64(collector.tls.reloads.WithLabelValues("failure")); got != 1 {
		t.Errorf("expected 1 failed reload, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.SessionStarted()
	collector.MessageRelayed("client_to_upstream", 10)

	if got := testutil.ToFloat64(collector.sessions.active); got != 0 {
		t.Errorf("expected no recording when disabled, got %v", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.SessionStarted()

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_relay_sessions_active 1") {
		t.Errorf("expected sessions_active in output, got:\n%s", rec.Body.String())
	}
}
