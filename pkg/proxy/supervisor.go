package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/logging"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Session outcomes. They label the sessions_total metric and the session span.
const (
	OutcomeClientClosed   = "client_closed"
	OutcomeUpstreamClosed = "upstream_closed"
	OutcomeAuthFailed     = "auth_failed"
	OutcomeConnectFailed  = "connect_failed"
	OutcomeInvalidFormat  = "invalid_format"
	OutcomeShutdown       = "shutdown"
	OutcomeError          = "error"
)

// Supervisor owns the lifetime of each session. It runs the AuthGate, then
// the Connector, then the Engine, and tears both legs down on every exit path.
type Supervisor struct {
	gate      *AuthGate
	connector Connector
	engine    *Engine
	registry  *Registry
	observer  Observer
	tracer    trace.Tracer
	logger    *logging.Logger
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithRegistry sets the registry live sessions are tracked in.
func WithRegistry(registry *Registry) SupervisorOption {
	return func(s *Supervisor) {
		s.registry = registry
	}
}

// WithObserver sets the observer notified of session events.
func WithObserver(observer Observer) SupervisorOption {
	return func(s *Supervisor) {
		s.observer = observer
	}
}

// WithTracer sets the tracer used for session spans.
func WithTracer(tracer trace.Tracer) SupervisorOption {
	return func(s *Supervisor) {
		s.tracer = tracer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// NewSupervisor creates a Supervisor.
func NewSupervisor(gate *AuthGate, connector Connector, engine *Engine, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		gate:      gate,
		connector: connector,
		engine:    engine,
		registry:  NewRegistry(),
		observer:  nopObserver{},
		tracer:    noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the registry of live sessions.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// Serve runs one session over client until it is fully torn down. It returns
// the error that ended the session, or nil for a clean close.
func (s *Supervisor) Serve(ctx context.Context, client Channel, remoteAddr string) (err error) {
	sess := newSession(client, remoteAddr)
	sessionID := sess.ID.String()

	ctx = logging.WithSession(ctx, sessionID)
	ctx = logging.WithRemoteAddr(ctx, remoteAddr)
	ctx, span := s.tracer.Start(ctx, tracing.SpanSession,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(tracing.SessionAttributes(sessionID, remoteAddr)...),
	)
	if traceID := tracing.TraceID(ctx); traceID != "" {
		ctx = logging.WithTraceID(ctx, traceID)
	}

	s.registry.Add(sess)
	s.observer.SessionStarted()
	s.logger.InfoContext(ctx, "new connection established")

	outcome := OutcomeError
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "unexpected error in session", "panic", fmt.Sprint(r))
			ev := CloseEvent{Code: CloseInternalError, Reason: ReasonUnexpected}
			sess.closeAll(ev)
			tracing.SetCloseAttributes(span, ev.Code, ev.Reason)
			outcome = OutcomeError
			err = fmt.Errorf("session panic: %v", r)
		}
		s.finish(ctx, span, sess, outcome, err)
	}()

	outcome, err = s.run(ctx, span, sess)
	return err
}

func (s *Supervisor) run(ctx context.Context, span trace.Span, sess *Session) (string, error) {
	s.advance(ctx, span, sess, StateAuthenticating)

	token, err := s.gate.AuthenticateSince(ctx, sess.client, sess.CreatedAt)
	if err != nil {
		return s.authFailed(ctx, span, sess, err)
	}
	sess.setToken(token)
	span.AddEvent(tracing.EventAuthenticated)
	s.logger.InfoContext(ctx, "bearer token received")

	s.advance(ctx, span, sess, StateConnecting)
	upstream, err := s.connect(ctx, token)
	if err != nil {
		s.advance(ctx, span, sess, StateClosing)
		if sess.ShuttingDown() || ctx.Err() != nil {
			s.closeClient(span, sess, CloseEvent{Code: CloseGoingAway, Reason: ReasonShuttingDown})
			return OutcomeShutdown, nil
		}
		ev := CloseEventFor(err)
		s.logger.ErrorContext(ctx, "failed to establish upstream connection", "error", err)
		s.closeClient(span, sess, ev)
		return OutcomeConnectFailed, err
	}

	if err := sess.setUpstream(upstream); err != nil {
		_ = upstream.Close(CloseGoingAway, ReasonShuttingDown)
		s.advance(ctx, span, sess, StateClosing)
		return OutcomeShutdown, nil
	}
	span.AddEvent(tracing.EventUpstreamConnected)
	s.logger.InfoContext(ctx, "connected to upstream")

	s.advance(ctx, span, sess, StateRelaying)
	result := s.engine.Relay(ctx, sess.client, upstream)
	span.AddEvent(tracing.EventRelayFinished, trace.WithAttributes(
		attribute.String(tracing.AttrDirection, result.First.Direction.String()),
		attribute.String(tracing.AttrErrorKind, result.First.Kind.String()),
	))
	s.advance(ctx, span, sess, StateClosing)

	outcome := relayOutcome(sess, result)
	if outcome == OutcomeInvalidFormat {
		if result.First.Direction == ClientToUpstream {
			tracing.SetCloseAttributes(span, ClosePolicyViolation, ReasonInvalidJSON)
		}
		return outcome, result.First
	}
	return outcome, nil
}

func (s *Supervisor) authFailed(ctx context.Context, span trace.Span, sess *Session, err error) (string, error) {
	s.advance(ctx, span, sess, StateClosing)

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		if sess.ShuttingDown() || ctx.Err() != nil {
			s.closeClient(span, sess, CloseEvent{Code: CloseGoingAway, Reason: ReasonShuttingDown})
			return OutcomeShutdown, nil
		}
		s.logger.InfoContext(ctx, "client connection closed before authentication", "error", err)
		return OutcomeClientClosed, nil
	}

	ev := CloseEventFor(err)
	s.observer.AuthFailed(authErr.Kind.String())
	s.logger.WarnContext(ctx, "authentication failed",
		"reason", authErr.Kind.String(),
		"close_code", ev.Code,
		"error", err,
	)
	s.closeClient(span, sess, ev)
	return OutcomeAuthFailed, err
}

func (s *Supervisor) connect(ctx context.Context, token string) (Channel, error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanUpstreamConnect, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	upstream, err := s.connector.Connect(ctx, token)
	elapsed := time.Since(start)
	if err != nil {
		kind := ConnectFailed.String()
		var connErr *ConnectError
		if errors.As(err, &connErr) {
			kind = connErr.Kind.String()
			if connErr.StatusCode > 0 {
				span.SetAttributes(attribute.Int(tracing.AttrStatusCode, connErr.StatusCode))
			}
		}
		span.SetAttributes(attribute.String(tracing.AttrErrorKind, kind))
		tracing.SetError(span, err)
		s.observer.UpstreamFailed(kind, elapsed)
		return nil, err
	}

	tracing.SetStatus(span, nil)
	s.observer.UpstreamConnected(elapsed)
	return upstream, nil
}

func (s *Supervisor) closeClient(span trace.Span, sess *Session, ev CloseEvent) {
	_ = sess.client.Close(ev.Code, ev.Reason)
	tracing.SetCloseAttributes(span, ev.Code, ev.Reason)
}

// finish closes both legs, completes the lifecycle and records the outcome.
func (s *Supervisor) finish(ctx context.Context, span trace.Span, sess *Session, outcome string, err error) {
	if sess.State() != StateClosing {
		s.advance(ctx, span, sess, StateClosing)
	}
	sess.closeAll(CloseEvent{Code: CloseNormal})
	s.advance(ctx, span, sess, StateClosed)
	s.registry.Remove(sess.ID)

	duration := time.Since(sess.CreatedAt)
	s.observer.SessionEnded(outcome, duration)

	span.SetAttributes(attribute.String(tracing.AttrOutcome, outcome))
	if err != nil {
		tracing.SetError(span, err)
	} else {
		tracing.SetStatus(span, nil)
	}
	span.End()

	s.logger.InfoContext(ctx, "session closed", "outcome", outcome, "duration", duration)
}

func (s *Supervisor) advance(ctx context.Context, span trace.Span, sess *Session, to State) {
	from, err := sess.transition(to)
	if err != nil {
		s.logger.DebugContext(ctx, "session state unchanged", "error", err)
		return
	}
	tracing.AddStateEvent(span, from.String(), to.String())
	s.logger.DebugContext(ctx, "session state changed", "from", from.String(), "to", to.String())
}

// relayOutcome names the leg that ended the relay. A receive that saw the
// peer close identifies the source leg; a failed send identifies the
// destination leg.
func relayOutcome(sess *Session, result RelayResult) string {
	if sess.ShuttingDown() {
		return OutcomeShutdown
	}
	first := result.First
	if first.Kind == RelayInvalidFormat {
		return OutcomeInvalidFormat
	}

	var peerErr *PeerCloseError
	sourceClosed := errors.As(first.Cause, &peerErr)
	if (first.Direction == ClientToUpstream) == sourceClosed {
		return OutcomeClientClosed
	}
	return OutcomeUpstreamClosed
}
