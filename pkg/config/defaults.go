package config

import "time"

// Default values for configuration fields.
const (
	// Relay defaults
	DefaultListenAddress     = "0.0.0.0:8080"
	DefaultRelayPath         = "/"
	DefaultAuthTimeout       = 30 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultCloseGracePeriod  = time.Second

	// Upstream defaults
	DefaultUpstreamURL              = "wss://us-central1-aiplatform.googleapis.com/ws/google.cloud.aiplatform.v1beta1.LlmBidiService/BidiGenerateContent"
	DefaultUpstreamHandshakeTimeout = 30 * time.Second
	DefaultUpstreamContentType      = "application/json"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultRedactSecrets      = true
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "gemini_relay"
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingService     = "gemini-relay"
	DefaultTracingTimeout     = 10 * time.Second
	DefaultHealthEnabled      = true
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultVersionPath        = "/version"
	DefaultSessionsPath       = "/debug/sessions"
	DefaultHealthCheckTimeout = 5 * time.Second

	// Security defaults
	DefaultTLSEnabled          = true
	DefaultTLSCertFile         = "server.crt"
	DefaultTLSKeyFile          = "server.key"
	DefaultTLSMinVersion       = "1.2"
	DefaultTLSWatch            = true
	DefaultExpiryCheckSchedule = "@every 1h"
	DefaultExpiryWarning       = 30 * 24 * time.Hour
	DefaultMTLSClientAuthType  = "require"
)

var (
	// DefaultDurationBuckets covers sub-second handshakes up to hour-long sessions.
	DefaultDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 900, 3600}

	// DefaultMessageSizeBuckets covers small control messages up to large media chunks.
	DefaultMessageSizeBuckets = []float64{64, 256, 1024, 4096, 16384, 65536, 262144, 1048576}
)

// Default returns a Config populated with every default value. Loading starts
// from this value so that fields absent from the YAML file keep their
// defaults, including booleans whose default is true.
func Default() *Config {
	cfg := &Config{
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactSecrets: DefaultRedactSecrets},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{Enabled: DefaultTracingEnabled, Insecure: true},
			Health:  HealthConfig{Enabled: DefaultHealthEnabled, SessionsPath: DefaultSessionsPath},
		},
		Security: SecurityConfig{
			TLS: TLSConfig{Enabled: DefaultTLSEnabled, Watch: DefaultTLSWatch},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Relay defaults
	if cfg.Relay.ListenAddress == "" {
		cfg.Relay.ListenAddress = DefaultListenAddress
	}
	if cfg.Relay.Path == "" {
		cfg.Relay.Path = DefaultRelayPath
	}
	if cfg.Relay.AuthTimeout == 0 {
		cfg.Relay.AuthTimeout = DefaultAuthTimeout
	}
	if cfg.Relay.ShutdownTimeout == 0 {
		cfg.Relay.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Relay.ReadHeaderTimeout == 0 {
		cfg.Relay.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.Relay.CloseGracePeriod == 0 {
		cfg.Relay.CloseGracePeriod = DefaultCloseGracePeriod
	}

	// Upstream defaults
	if cfg.Upstream.URL == "" {
		cfg.Upstream.URL = DefaultUpstreamURL
	}
	if cfg.Upstream.HandshakeTimeout == 0 {
		cfg.Upstream.HandshakeTimeout = DefaultUpstreamHandshakeTimeout
	}
	if cfg.Upstream.ContentType == "" {
		cfg.Upstream.ContentType = DefaultUpstreamContentType
	}

	applyTelemetryDefaults(&cfg.Telemetry)

	// Security defaults
	tlsCfg := &cfg.Security.TLS
	if tlsCfg.CertFile == "" {
		tlsCfg.CertFile = DefaultTLSCertFile
	}
	if tlsCfg.KeyFile == "" {
		tlsCfg.KeyFile = DefaultTLSKeyFile
	}
	if tlsCfg.MinVersion == "" {
		tlsCfg.MinVersion = DefaultTLSMinVersion
	}
	if tlsCfg.ExpiryCheckSchedule == "" {
		tlsCfg.ExpiryCheckSchedule = DefaultExpiryCheckSchedule
	}
	if tlsCfg.ExpiryWarning == 0 {
		tlsCfg.ExpiryWarning = DefaultExpiryWarning
	}
	if tlsCfg.MTLS.ClientAuthType == "" {
		tlsCfg.MTLS.ClientAuthType = DefaultMTLSClientAuthType
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(t.Metrics.DurationBuckets) == 0 {
		t.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if len(t.Metrics.MessageSizeBuckets) == 0 {
		t.Metrics.MessageSizeBuckets = append([]float64(nil), DefaultMessageSizeBuckets...)
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 && t.Tracing.Sampler == "ratio" {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingService
	}
	if t.Tracing.ExportTimeout == 0 {
		t.Tracing.ExportTimeout = DefaultTracingTimeout
	}

	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultReadinessPath
	}
	if t.Health.VersionPath == "" {
		t.Health.VersionPath = DefaultVersionPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
