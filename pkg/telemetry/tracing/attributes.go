package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanSession         = "relay.session"
	SpanUpstreamConnect = "relay.upstream.connect"
)

// Span event names, one per session phase.
const (
	EventAuthenticated     = "authenticated"
	EventUpstreamConnected = "upstream.connected"
	EventRelayFinished     = "relay.finished"
	EventStateChanged      = "state.changed"
)

// Attribute keys. Custom keys use the "relay." namespace.
const (
	AttrSessionID   = "relay.session.id"
	AttrRemoteAddr  = "client.address"
	AttrState       = "relay.state"
	AttrOutcome     = "relay.outcome"
	AttrCloseCode   = "relay.close.code"
	AttrCloseReason = "relay.close.reason"
	AttrDirection   = "relay.direction"
	AttrUpstreamURL = "relay.upstream.url"
	AttrStatusCode  = "http.response.status_code"
	AttrErrorKind   = "relay.error.kind"
)

// SessionAttributes returns the attributes set on every session span.
func SessionAttributes(sessionID, remoteAddr string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSessionID, sessionID),
		attribute.String(AttrRemoteAddr, remoteAddr),
	}
}

// SetCloseAttributes records the close frame sent to the client.
func SetCloseAttributes(span trace.Span, code int, reason string) {
	span.SetAttributes(
		attribute.Int(AttrCloseCode, code),
		attribute.String(AttrCloseReason, reason),
	)
}

// AddStateEvent records a session state transition.
func AddStateEvent(span trace.Span, from, to string) {
	span.AddEvent(EventStateChanged, trace.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
