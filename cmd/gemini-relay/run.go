package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/cli"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/server"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/logging"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/metrics"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress  string
	upstreamURL    string
	logLevel       string
	certFile       string
	keyFile        string
	insecureListen bool
	dryRun         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay",
	Long: `Start the relay with the specified configuration.

Flags override the config file, which in turn is overridden by RELAY_*
environment variables for the fields they cover.

Examples:
  # Start with default config
  gemini-relay run

  # Start with custom config
  gemini-relay run --config /etc/gemini-relay/config.yaml

  # Serve plain ws:// on localhost
  gemini-relay run --insecure-listen --listen 127.0.0.1:8080

  # Validate config and certificates without starting
  gemini-relay run --dry-run`,
	Args: cobra.NoArgs,
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.upstreamURL, "upstream", "", "override upstream WebSocket URL")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.certFile, "cert", "", "TLS certificate file")
	runCmd.Flags().StringVar(&runFlags.keyFile, "key", "", "TLS private key file")
	runCmd.Flags().BoolVar(&runFlags.insecureListen, "insecure-listen", false, "serve plain ws:// without TLS (development only)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and certificates without starting")
}

func applyRunFlags(cfg *config.Config) error {
	if runFlags.listenAddress != "" {
		cfg.Relay.ListenAddress = runFlags.listenAddress
	}
	if runFlags.upstreamURL != "" {
		cfg.Upstream.URL = runFlags.upstreamURL
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if runFlags.certFile != "" {
		cfg.Security.TLS.CertFile = runFlags.certFile
	}
	if runFlags.keyFile != "" {
		cfg.Security.TLS.KeyFile = runFlags.keyFile
	}
	if runFlags.insecureListen {
		cfg.Security.TLS.Enabled = false
		cfg.Security.TLS.MTLS.Enabled = false
	}
	return config.Validate(cfg)
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg); err != nil {
		return err
	}

	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	logCfg.Writer = cmd.ErrOrStderr()
	logger, err := logging.New(logCfg)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	defer logger.Shutdown()

	if !cfg.Security.TLS.Enabled {
		logger.Warn("TLS is disabled, clients connect over plain ws://")
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithBuildInfo(server.BuildInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate}),
	}
	if cfg.Telemetry.Metrics.Enabled {
		opts = append(opts, server.WithMetrics(metrics.NewCollector(&cfg.Telemetry.Metrics, nil)))
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()
	opts = append(opts, server.WithTracing(tracer))

	srv, err := server.New(cfg, opts...)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SignalContext(cmd.Context(), func(sig os.Signal) {
		logger.Error("second signal received, exiting immediately", "signal", sig.String())
		os.Exit(cli.ExitFailure)
	})
	defer stop()

	go func() {
		select {
		case <-srv.Ready():
			scheme := "wss"
			if !cfg.Security.TLS.Enabled {
				scheme = "ws"
			}
			fmt.Fprintf(out, "✓ Relay listening on %s://%s%s\n", scheme, srv.Addr(), cfg.Relay.Path)
			fmt.Fprintf(out, "✓ Upstream: %s\n", cfg.Upstream.URL)
			fmt.Fprintln(out, "\nPress Ctrl+C to stop")
		case <-ctx.Done():
		}
	}()

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Relay stopped")
	return nil
}
