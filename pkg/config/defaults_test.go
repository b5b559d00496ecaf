package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Relay.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("expected default listen address 0.0.0.0:8080, got %q", cfg.Relay.ListenAddress)
	}
	if cfg.Relay.AuthTimeout != 30*time.Second {
		t.Errorf("expected 30s auth timeout, got %v", cfg.Relay.AuthTimeout)
	}
	if cfg.Upstream.ContentType != "application/json" {
		t.Errorf("unexpected content type %q", cfg.Upstream.ContentType)
	}
	if cfg.Security.TLS.CertFile != "server.crt" || cfg.Security.TLS.KeyFile != "server.key" {
		t.Errorf("unexpected TLS files %q %q", cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default configuration should validate: %v", err)
	}
}

func TestApplyDefaults_PreservesSetValues(t *testing.T) {
	cfg := &Config{
		Relay: RelayConfig{
			ListenAddress: "127.0.0.1:1234",
			AuthTimeout:   time.Second,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{DurationBuckets: []float64{1, 2}},
		},
	}

	ApplyDefaults(cfg)

	if cfg.Relay.ListenAddress != "127.0.0.1:1234" {
		t.Errorf("listen address overwritten: %q", cfg.Relay.ListenAddress)
	}
	if cfg.Relay.AuthTimeout != time.Second {
		t.Errorf("auth timeout overwritten: %v", cfg.Relay.AuthTimeout)
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) != 2 {
		t.Errorf("duration buckets overwritten: %v", cfg.Telemetry.Metrics.DurationBuckets)
	}
	if cfg.Relay.Path != DefaultRelayPath {
		t.Errorf("expected default path, got %q", cfg.Relay.Path)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := Default()
	before := *cfg
	ApplyDefaults(cfg)

	if cfg.Relay.ListenAddress != before.Relay.ListenAddress || cfg.Upstream != before.Upstream {
		t.Error("ApplyDefaults changed an already-defaulted config")
	}
}
