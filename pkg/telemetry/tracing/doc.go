// Package tracing sets up OpenTelemetry tracing for relay sessions.
//
// Each session gets one span covering accept to teardown, with an event per
// phase and the client close code as attributes. Spans are exported over
// OTLP gRPC. W3C trace context is extracted from the client's upgrade request
// and can optionally be injected into the upstream upgrade request.
package tracing
