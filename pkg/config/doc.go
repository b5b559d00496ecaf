// Package config provides configuration management for the relay.
//
// Configuration is read from a YAML file, overlaid on Default(), then
// overridden by RELAY_* environment variables and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// LoadOptional treats a missing file as empty, which lets the relay start
// from defaults alone. Validate collects every field error into a single
// ValidationError.
//
// The loaded *Config is built once at startup and passed explicitly to the
// components that need it; there is no package-level instance.
package config
