// Package metrics exports Prometheus metrics for the relay.
//
// A Collector registers session, upstream, message and TLS metrics on its
// own registry and serves them through Handler. It implements the observer
// interface the proxy package reports session events to.
package metrics
