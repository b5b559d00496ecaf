// Package health provides the liveness, readiness and version endpoints of
// the relay.
//
// # Endpoints
//
//   - /health: liveness, 200 while the process runs
//   - /ready: readiness, 503 while draining or when a check fails
//   - /version: build information
//
// Both probes include the number of live sessions when a counter is set.
//
// # Usage
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("tls_certificate", reloader.Check)
//	checker.RegisterCheck("upstream_config", health.StaticCheck(func() error {
//	    return config.ValidateUpstreamURL(cfg.Upstream.URL)
//	}))
//	checker.SetSessionCounter(registry.Count)
//	checker.Register(mux, health.Paths{Liveness: "/health", Readiness: "/ready", Version: "/version"},
//	    version, commit, buildTime)
//
// Call Drain when shutdown starts so load balancers stop routing new clients.
package health
