package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "relay.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration. All field errors are collected
// and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRelay(&cfg.Relay)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateRelay(cfg *RelayConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "relay.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "relay.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}

	if !strings.HasPrefix(cfg.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "relay.path",
			Message: fmt.Sprintf("path %q must start with '/'", cfg.Path),
		})
	}

	if cfg.AuthTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "relay.auth_timeout",
			Message: "auth timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "relay.shutdown_timeout",
			Message: "shutdown timeout cannot be negative",
		})
	}
	if cfg.MaxMessageBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "relay.max_message_bytes",
			Message: "max message bytes cannot be negative",
		})
	}
	if cfg.ReadBufferSize < 0 || cfg.WriteBufferSize < 0 {
		errs = append(errs, FieldError{
			Field:   "relay.read_buffer_size",
			Message: "buffer sizes cannot be negative",
		})
	}

	return errs
}

func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.URL == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.url",
			Message: "upstream URL is required",
		})
	} else if err := ValidateUpstreamURL(cfg.URL); err != nil {
		errs = append(errs, FieldError{
			Field:   "upstream.url",
			Message: err.Error(),
		})
	}

	if cfg.HandshakeTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.handshake_timeout",
			Message: "handshake timeout must be positive",
		})
	}

	return errs
}

// ValidateUpstreamURL reports whether raw is an absolute ws:// or wss:// URL.
func ValidateUpstreamURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid upstream URL %q: %w", raw, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("upstream URL %q must use ws or wss scheme", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("upstream URL %q has no host", raw)
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "pattern is required",
			})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/' when metrics are enabled",
		})
	}

	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}

	if cfg.Health.Enabled {
		paths := map[string]string{
			"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
			"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
			"telemetry.health.version_path":   cfg.Health.VersionPath,
		}
		for field, p := range paths {
			if !strings.HasPrefix(p, "/") {
				errs = append(errs, FieldError{
					Field:   field,
					Message: fmt.Sprintf("path %q must start with '/'", p),
				})
			}
		}
		if cfg.Health.CheckTimeout <= 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
	}

	return errs
}

func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError
	tlsCfg := &cfg.TLS

	if tlsCfg.Enabled {
		if tlsCfg.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   "security.tls.cert_file",
				Message: "TLS certificate file is required when TLS is enabled",
			})
		}
		if tlsCfg.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "security.tls.key_file",
				Message: "TLS key file is required when TLS is enabled",
			})
		}
		if tlsCfg.MinVersion != "1.2" && tlsCfg.MinVersion != "1.3" {
			errs = append(errs, FieldError{
				Field:   "security.tls.min_version",
				Message: fmt.Sprintf("unsupported TLS version %q: must be '1.2' or '1.3'", tlsCfg.MinVersion),
			})
		}
		if tlsCfg.ExpiryCheckSchedule != "" {
			if _, err := cron.ParseStandard(tlsCfg.ExpiryCheckSchedule); err != nil {
				errs = append(errs, FieldError{
					Field:   "security.tls.expiry_check_schedule",
					Message: fmt.Sprintf("invalid cron expression %q: %v", tlsCfg.ExpiryCheckSchedule, err),
				})
			}
		}
	}

	if tlsCfg.MTLS.Enabled {
		if tlsCfg.MTLS.ClientCAFile == "" {
			errs = append(errs, FieldError{
				Field:   "security.tls.mtls.client_ca_file",
				Message: "mTLS client CA file is required when mTLS is enabled",
			})
		}
		if !tlsCfg.Enabled {
			errs = append(errs, FieldError{
				Field:   "security.tls.mtls.enabled",
				Message: "mTLS requires TLS to be enabled (security.tls.enabled must be true)",
			})
		}
	}

	return errs
}
