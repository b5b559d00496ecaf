package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/cli"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gemini-relay",
	Short: "TLS WebSocket relay for the Gemini multimodal live API",
	Long: `gemini-relay accepts WebSocket clients over TLS, reads a bearer token from
the first message and relays JSON messages to and from a fixed upstream
streaming endpoint using that token.

Every message is validated as JSON in both directions. Authentication and
upstream failures are reported to the client with WebSocket close codes
1008 (policy violation) and 1011 (internal error).`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and exits with a status derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the config file with RELAY_* overrides applied. The
// default path may be absent; an explicit --config must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.LoadOptional(cfgFile, cmd.Flags().Changed("config"))
}
