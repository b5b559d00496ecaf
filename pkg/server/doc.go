// Package server assembles the relay: the WebSocket upgrade handler, the
// session supervisor and its upstream connector, TLS termination with
// certificate hot reload, and the metrics, health and session endpoints.
//
// # Usage
//
//	srv, err := server.New(cfg,
//	    server.WithLogger(logger),
//	    server.WithMetrics(collector),
//	    server.WithTracing(tracer),
//	    server.WithBuildInfo(server.BuildInfo{Version: version}),
//	)
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// Start blocks until ctx is cancelled. Shutdown then marks the relay as not
// ready, stops accepting connections, closes every live session with 1001
// "Server shutting down" and waits up to relay.shutdown_timeout for the
// sessions to finish.
//
// # Routes
//
//   - relay.path: WebSocket upgrades (default "/")
//   - telemetry.metrics.path: Prometheus metrics
//   - /health, /ready, /version: probes
//   - /debug/sessions: live sessions, without tokens
package server
