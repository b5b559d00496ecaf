// Package telemetry groups the relay's observability packages.
//
// # Components
//
//   - logging: structured slog logging with credential redaction
//   - metrics: Prometheus collectors for sessions, messages, upstream dials and certificates
//   - tracing: OpenTelemetry spans per relay session
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//
//	srv, err := server.New(cfg,
//		server.WithLogger(logger),
//		server.WithMetrics(collector),
//		server.WithTracing(tracer),
//	)
//
// # Credential Protection
//
// Bearer tokens must never reach logs. With redaction enabled, attribute
// values under keys such as token or authorization are replaced, and token
// shaped strings inside messages are masked:
//
//   - Bearer ya29.a0Af... → Bearer ***
//   - ya29.a0Af...        → ya29.***
//
// Custom redaction patterns can be configured.
package telemetry
