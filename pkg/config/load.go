package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix shared by every environment variable override.
const EnvPrefix = "RELAY_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Fields absent from the file keep their defaults. The result is validated
// but not modified by environment variables; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides (RELAY_*). Environment variables always take
// precedence over file-based configuration.
//
// The loading sequence is:
// 1. Start from Default()
// 2. Overlay the YAML file
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOptional behaves like LoadConfigWithEnvOverrides but treats a missing
// file as an empty one when required is false. The CLI uses it for its
// default config path.
func LoadOptional(path string, required bool) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		return cfg, nil
	}
	if required || !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg = Default()
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean or duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Relay overrides
	if val := getenv("LISTEN_ADDRESS"); val != "" {
		cfg.Relay.ListenAddress = val
	}
	if val := getenv("PATH"); val != "" {
		cfg.Relay.Path = val
	}
	envDuration("AUTH_TIMEOUT", &cfg.Relay.AuthTimeout)
	envDuration("SHUTDOWN_TIMEOUT", &cfg.Relay.ShutdownTimeout)
	if val := getenv("MAX_MESSAGE_BYTES"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Relay.MaxMessageBytes = n
		}
	}

	// Upstream overrides
	if val := getenv("UPSTREAM_URL"); val != "" {
		cfg.Upstream.URL = val
	}
	envDuration("UPSTREAM_HANDSHAKE_TIMEOUT", &cfg.Upstream.HandshakeTimeout)
	envBool("UPSTREAM_PROPAGATE_TRACE", &cfg.Upstream.PropagateTrace)

	// Telemetry overrides
	if val := getenv("LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := getenv("LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	envBool("DEBUG", &cfg.Telemetry.Logging.DebugMessages)
	if cfg.Telemetry.Logging.DebugMessages && getenv("LOG_LEVEL") == "" {
		cfg.Telemetry.Logging.Level = "debug"
	}
	envBool("METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	if val := getenv("TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := getenv("TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}

	// Security overrides
	envBool("TLS_ENABLED", &cfg.Security.TLS.Enabled)
	if val := getenv("TLS_CERT_FILE"); val != "" {
		cfg.Security.TLS.CertFile = val
	}
	if val := getenv("TLS_KEY_FILE"); val != "" {
		cfg.Security.TLS.KeyFile = val
	}
	if val := getenv("TLS_MIN_VERSION"); val != "" {
		cfg.Security.TLS.MinVersion = val
	}
}

func getenv(name string) string {
	return os.Getenv(EnvPrefix + name)
}

func envDuration(name string, dst *time.Duration) {
	if val := getenv(name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envBool(name string, dst *bool) {
	if val := getenv(name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
