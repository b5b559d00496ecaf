package proxy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/logging"
)

// maxDebugPayload caps payloads written to the debug log.
const maxDebugPayload = 512

// errDestinationWrite marks a loop that ended because its destination could
// no longer be written.
var errDestinationWrite = errors.New("destination write failed")

// Direction identifies a forwarding loop.
type Direction int

const (
	// ClientToUpstream reads from the client and writes to the upstream.
	ClientToUpstream Direction = iota

	// UpstreamToClient reads from the upstream and writes to the client.
	UpstreamToClient
)

// String returns the metric label for the direction.
func (d Direction) String() string {
	if d == UpstreamToClient {
		return "upstream_to_client"
	}
	return "client_to_upstream"
}

// RelayResult reports how both forwarding loops ended.
type RelayResult struct {
	// First is the loop that ended first and triggered teardown.
	First *RelayError

	// Second is the sibling loop, stopped by teardown.
	Second *RelayError
}

// Engine runs the two forwarding loops of a session.
type Engine struct {
	logger        *logging.Logger
	observer      Observer
	debugMessages bool
	normalize     func([]byte) ([]byte, error)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the logger.
func WithEngineLogger(logger *logging.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEngineObserver sets the observer notified of every message.
func WithEngineObserver(observer Observer) EngineOption {
	return func(e *Engine) {
		e.observer = observer
	}
}

// WithDebugMessages logs each relayed payload at debug level.
func WithDebugMessages(enabled bool) EngineOption {
	return func(e *Engine) {
		e.debugMessages = enabled
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:    logging.Discard(),
		observer:  nopObserver{},
		normalize: Normalize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Relay forwards messages between client and upstream until one loop ends.
// It then closes both channels and waits for the sibling loop, so no loop
// outlives the call. Loops never close channels themselves: the first result
// alone decides the close frames.
func (e *Engine) Relay(ctx context.Context, client, upstream Channel) RelayResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan *RelayError, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		results <- e.forward(ctx, ClientToUpstream, client, upstream)
	}()
	go func() {
		defer wg.Done()
		results <- e.forward(ctx, UpstreamToClient, upstream, client)
	}()

	first := <-results
	e.logger.DebugContext(ctx, "relay loop finished, stopping sibling",
		"direction", first.Direction.String(),
		"reason", first.Kind.String(),
	)

	cancel()
	teardown(first, client, upstream)
	wg.Wait()

	return RelayResult{First: first, Second: <-results}
}

// forward moves messages from src to dst until src closes, a message fails
// validation, or dst can no longer be written.
func (e *Engine) forward(ctx context.Context, dir Direction, src, dst Channel) *RelayError {
	label := dir.String()

	for {
		raw, err := src.Receive(ctx)
		if err != nil {
			e.logReceiveEnd(ctx, dir, err)
			return &RelayError{Kind: RelayPeerClosed, Direction: dir, Cause: err}
		}

		out, perr := e.process(raw)
		if perr != nil {
			perr.Direction = dir
			if perr.Kind == RelayTransientProcessing {
				e.observer.TransientError(label)
				e.logger.ErrorContext(ctx, "error processing message", "direction", label, "error", perr)
				continue
			}
			e.observer.MessageRejected(label)
			e.logger.WarnContext(ctx, "invalid JSON format in message, closing source",
				"direction", label,
				"size", len(raw),
				"error", perr.Cause,
			)
			return perr
		}

		if err := dst.Send(ctx, out); err != nil {
			if ctx.Err() != nil {
				return &RelayError{Kind: RelayPeerClosed, Direction: dir, Cause: err}
			}
			if errors.Is(err, ErrChannelClosed) {
				return &RelayError{Kind: RelayPeerClosed, Direction: dir, Cause: fmt.Errorf("%w: %w", errDestinationWrite, err)}
			}
			e.observer.TransientError(label)
			e.logger.ErrorContext(ctx, "error forwarding message", "direction", label, "error", err)
			continue
		}

		e.observer.MessageRelayed(label, len(out))
		if e.debugMessages {
			e.logger.DebugContext(ctx, "proxying message",
				"direction", label,
				"payload", logging.Truncate(string(out), maxDebugPayload),
			)
		}
	}
}

// process validates and re-encodes one message. A panic while handling the
// message is reported as a transient error rather than ending the loop.
func (e *Engine) process(raw []byte) (out []byte, rerr *RelayError) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			rerr = &RelayError{Kind: RelayTransientProcessing, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	out, err := e.normalize(raw)
	if err != nil {
		return nil, &RelayError{Kind: RelayInvalidFormat, Cause: err}
	}
	return out, nil
}

func (e *Engine) logReceiveEnd(ctx context.Context, dir Direction, err error) {
	var peerErr *PeerCloseError
	switch {
	case errors.As(err, &peerErr) && peerErr.Normal():
		e.logger.InfoContext(ctx, "connection closed", "direction", dir.String(), "code", peerErr.Code)
	case errors.As(err, &peerErr):
		e.logger.WarnContext(ctx, "connection closed unexpectedly",
			"direction", dir.String(),
			"code", peerErr.Code,
			"reason", peerErr.Text,
		)
	default:
		e.logger.DebugContext(ctx, "relay loop stopped", "direction", dir.String(), "error", err)
	}
}

// teardown closes both legs after the first loop ended. The source of an
// invalid message gets 1008; the destination gets the frame chosen by
// destinationClose.
func teardown(first *RelayError, client, upstream Channel) {
	src, dst := client, upstream
	if first.Direction == UpstreamToClient {
		src, dst = upstream, client
	}
	if first.Kind == RelayInvalidFormat {
		_ = src.Close(ClosePolicyViolation, ReasonInvalidJSON)
	}
	ev := destinationClose(first.Direction, first)
	_ = dst.Close(ev.Code, ev.Reason)
	ev = sourceClose(first.Direction, first)
	_ = src.Close(ev.Code, ev.Reason)
}

// sourceClose picks the close frame for the source of a finished loop. A
// client loop that stopped because the upstream could not be written tells
// the client 1011, the same as an upstream drop seen by the reading side.
func sourceClose(dir Direction, result *RelayError) CloseEvent {
	if dir != ClientToUpstream || result == nil || result.Kind != RelayPeerClosed {
		return CloseEvent{Code: CloseNormal}
	}
	var peerErr *PeerCloseError
	if errors.Is(result.Cause, errDestinationWrite) && !errors.As(result.Cause, &peerErr) {
		return CloseEvent{Code: CloseInternalError, Reason: ReasonUpstreamClosed}
	}
	return CloseEvent{Code: CloseNormal}
}

// destinationClose picks the close frame for the destination of a finished
// loop. The client is told 1011 when the upstream leg failed; every other
// case is a normal close.
func destinationClose(dir Direction, result *RelayError) CloseEvent {
	if dir != UpstreamToClient || result == nil {
		return CloseEvent{Code: CloseNormal}
	}
	if result.Kind == RelayInvalidFormat {
		return CloseEvent{Code: CloseInternalError, Reason: ReasonUpstreamClosed}
	}
	var peerErr *PeerCloseError
	if errors.As(result.Cause, &peerErr) && !peerErr.Normal() {
		return CloseEvent{Code: CloseInternalError, Reason: ReasonUpstreamClosed}
	}
	return CloseEvent{Code: CloseNormal}
}
