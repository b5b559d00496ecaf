package config

import "time"

// Config is the root configuration structure for the relay.
// It is loaded once at startup and handed by pointer to the listener and the
// upstream connector.
type Config struct {
	// Relay contains the inbound listener and session settings.
	Relay RelayConfig `yaml:"relay"`

	// Upstream describes the single fixed upstream WebSocket endpoint.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Telemetry contains logging, metrics, tracing and health settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains TLS settings for the listener.
	Security SecurityConfig `yaml:"security"`
}

// RelayConfig contains configuration for the client-facing WebSocket listener.
type RelayConfig struct {
	// ListenAddress is the address and port for the relay to listen on.
	// Format: "host:port".
	// Default: "0.0.0.0:8080"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path that accepts WebSocket upgrades.
	// Default: "/"
	Path string `yaml:"path"`

	// AuthTimeout bounds the wait for the first client message carrying the
	// bearer token.
	// Default: 30s
	AuthTimeout time.Duration `yaml:"auth_timeout"`

	// ReadBufferSize and WriteBufferSize size the I/O buffers of accepted
	// connections. Zero uses the library default.
	ReadBufferSize  int `yaml:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size"`

	// MaxMessageBytes caps a single inbound message. Zero means no limit.
	// Default: 0
	MaxMessageBytes int64 `yaml:"max_message_bytes"`

	// EnableCompression negotiates permessage-deflate with clients.
	// Default: false
	EnableCompression bool `yaml:"enable_compression"`

	// AllowedOrigins restricts the Origin header of upgrade requests.
	// Empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// ShutdownTimeout is the maximum duration to wait for live sessions to
	// finish during graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// ReadHeaderTimeout bounds reading the upgrade request headers.
	// Default: 10s
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	// CloseGracePeriod bounds writing a close frame to a peer.
	// Default: 1s
	CloseGracePeriod time.Duration `yaml:"close_grace_period"`
}

// UpstreamConfig contains configuration for the outbound connection.
type UpstreamConfig struct {
	// URL is the ws:// or wss:// endpoint every session connects to.
	// Default: the Vertex AI BidiGenerateContent streaming endpoint.
	URL string `yaml:"url"`

	// HandshakeTimeout bounds the upstream opening handshake.
	// Default: 30s
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`

	// ContentType is sent as the Content-Type header on the upgrade request.
	// Default: "application/json"
	ContentType string `yaml:"content_type"`

	// PropagateTrace injects W3C trace context headers into the upgrade request.
	// Default: false
	PropagateTrace bool `yaml:"propagate_trace"`

	// ReadBufferSize and WriteBufferSize size the upstream I/O buffers.
	ReadBufferSize  int `yaml:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks bearer tokens and other credentials in log output.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`

	// RedactPatterns contains additional redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`

	// DebugMessages logs every relayed payload at debug level.
	// Default: false
	DebugMessages bool `yaml:"debug_messages"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "gemini_relay"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for session and connect
	// durations (seconds).
	DurationBuckets []float64 `yaml:"duration_buckets"`

	// MessageSizeBuckets defines histogram buckets for relayed message sizes.
	MessageSizeBuckets []float64 `yaml:"message_size_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of sessions to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "gemini-relay"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// ExportTimeout is the timeout for span exports.
	// Default: 10s
	ExportTimeout time.Duration `yaml:"export_timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// SessionsPath serves a JSON listing of live sessions. Empty disables it.
	// Default: "/debug/sessions"
	SessionsPath string `yaml:"sessions_path"`

	// CheckTimeout is the timeout for individual readiness checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	// TLS contains TLS configuration for the listener.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS configuration.
type TLSConfig struct {
	// Enabled controls whether the listener terminates TLS.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM certificate.
	// Default: "server.crt"
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM private key.
	// Default: "server.key"
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version to accept.
	// Options: "1.2", "1.3"
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`

	// CipherSuites is a list of enabled TLS 1.2 cipher suites.
	// If empty, Go's default secure cipher suites are used.
	CipherSuites []string `yaml:"cipher_suites"`

	// Watch reloads the certificate when either file changes on disk.
	// Default: true
	Watch bool `yaml:"watch"`

	// ExpiryCheckSchedule is a cron expression for certificate expiry checks.
	// Default: "@every 1h"
	ExpiryCheckSchedule string `yaml:"expiry_check_schedule"`

	// ExpiryWarning is how far ahead of expiry a warning is logged.
	// Default: 720h
	ExpiryWarning time.Duration `yaml:"expiry_warning"`

	// MTLS contains client certificate verification settings.
	MTLS MTLSConfig `yaml:"mtls"`
}

// MTLSConfig contains mutual TLS configuration.
type MTLSConfig struct {
	// Enabled controls whether client certificates are requested.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ClientCAFile is the CA bundle used to verify client certificates.
	ClientCAFile string `yaml:"client_ca_file"`

	// ClientAuthType specifies how to handle client certificates.
	// Options: "require", "request", "verify_if_given"
	// Default: "require"
	ClientAuthType string `yaml:"client_auth_type"`
}
