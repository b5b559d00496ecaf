package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/cli"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect relay configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration file, apply RELAY_* environment overrides and
defaults, and report every invalid field.

Exit code 2 signals an invalid configuration.

Examples:
  gemini-relay config validate
  gemini-relay config validate -c /etc/gemini-relay/config.yaml`,
	Args: cobra.NoArgs,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✗ %s is invalid:\n", cfgFile)
			for _, ce := range cli.ConfigErrors(err) {
				fmt.Fprintf(out, "  - %s\n", ce.Error())
			}
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", cfgFile)
	if verbose {
		scheme := "wss"
		if !cfg.Security.TLS.Enabled {
			scheme = "ws"
		}
		fmt.Fprintf(out, "  Listen:   %s://%s%s\n", scheme, cfg.Relay.ListenAddress, cfg.Relay.Path)
		fmt.Fprintf(out, "  Upstream: %s\n", cfg.Upstream.URL)
	}
	return nil
}
