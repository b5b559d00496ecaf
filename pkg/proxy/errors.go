package proxy

import (
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

// Close codes applied to the legs of a session.
const (
	CloseNormal          = websocket.CloseNormalClosure
	CloseGoingAway       = websocket.CloseGoingAway
	ClosePolicyViolation = websocket.ClosePolicyViolation
	CloseInternalError   = websocket.CloseInternalServerErr
)

// Close reasons sent to clients.
const (
	ReasonInvalidAuthMessage = "Invalid authentication message"
	ReasonMissingToken       = "Bearer token missing"
	ReasonAuthTimeout        = "Authentication timeout"
	ReasonInvalidJSON        = "Invalid JSON format"
	ReasonUpstreamClosed     = "Server connection closed"
	ReasonConnectFailed      = "Failed to connect to server"
	ReasonUnexpected         = "Unexpected server error"
	ReasonShuttingDown       = "Server shutting down"
)

// CloseEvent is a close code and reason to apply to a channel.
type CloseEvent struct {
	Code   int
	Reason string
}

// AuthErrorKind classifies an authentication failure.
type AuthErrorKind int

const (
	// AuthTimeout means no message arrived before the auth deadline.
	AuthTimeout AuthErrorKind = iota + 1

	// AuthInvalidJSON means the first message was not valid JSON.
	AuthInvalidJSON

	// AuthMissingToken means the first message had no usable bearer_token.
	AuthMissingToken
)

// String returns the metric label for the kind.
func (k AuthErrorKind) String() string {
	switch k {
	case AuthTimeout:
		return "timeout"
	case AuthInvalidJSON:
		return "invalid_json"
	case AuthMissingToken:
		return "missing_token"
	default:
		return "unknown"
	}
}

// AuthError is returned by the AuthGate. Every kind is terminal for the
// session and closes the client with 1008.
type AuthError struct {
	// Kind is the failure category
	Kind AuthErrorKind

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication failed (%s): %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Kind)
}

// Unwrap returns the underlying error for error chain support.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AuthError of the same kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// ConnectErrorKind classifies an upstream connection failure.
type ConnectErrorKind int

const (
	// ConnectFailed means the connection could not be established at all.
	ConnectFailed ConnectErrorKind = iota + 1

	// ConnectClosedWithError means the upstream actively rejected the
	// opening handshake.
	ConnectClosedWithError
)

// String returns the metric label for the kind.
func (k ConnectErrorKind) String() string {
	switch k {
	case ConnectFailed:
		return "connect_failed"
	case ConnectClosedWithError:
		return "closed_with_error"
	default:
		return "unknown"
	}
}

// ConnectError is returned by a Connector. Both kinds are terminal for the
// session and close the client with 1011. There is no retry.
type ConnectError struct {
	// Kind is the failure category
	Kind ConnectErrorKind

	// StatusCode is the HTTP status of a rejected handshake (0 if not applicable)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream connection %s (status %d): %v", e.Kind, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("upstream connection %s: %v", e.Kind, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ConnectError of the same kind.
func (e *ConnectError) Is(target error) bool {
	t, ok := target.(*ConnectError)
	return ok && t.Kind == e.Kind
}

// RelayErrorKind classifies why a forwarding loop stopped or skipped a message.
type RelayErrorKind int

const (
	// RelayInvalidFormat means a message was not valid JSON. The source leg
	// is closed with 1008 and the loop ends.
	RelayInvalidFormat RelayErrorKind = iota + 1

	// RelayPeerClosed means a leg closed or the session was cancelled.
	RelayPeerClosed

	// RelayTransientProcessing is an unexpected failure on a single message.
	// It is recorded and the loop continues.
	RelayTransientProcessing
)

// String returns the label for the kind.
func (k RelayErrorKind) String() string {
	switch k {
	case RelayInvalidFormat:
		return "invalid_format"
	case RelayPeerClosed:
		return "peer_closed"
	case RelayTransientProcessing:
		return "transient_processing"
	default:
		return "unknown"
	}
}

// RelayError describes the end of one forwarding loop, or a skipped message.
type RelayError struct {
	// Kind is the failure category
	Kind RelayErrorKind

	// Direction is the loop the error occurred in
	Direction Direction

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *RelayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("relay %s %s: %v", e.Direction, e.Kind, e.Cause)
	}
	return fmt.Sprintf("relay %s %s", e.Direction, e.Kind)
}

// Unwrap returns the underlying error for error chain support.
func (e *RelayError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a RelayError of the same kind.
func (e *RelayError) Is(target error) bool {
	t, ok := target.(*RelayError)
	return ok && t.Kind == e.Kind
}

// Sentinel values for errors.Is checks.
var (
	ErrAuthTimeout         = &AuthError{Kind: AuthTimeout}
	ErrAuthInvalidJSON     = &AuthError{Kind: AuthInvalidJSON}
	ErrAuthMissingToken    = &AuthError{Kind: AuthMissingToken}
	ErrConnectFailed       = &ConnectError{Kind: ConnectFailed}
	ErrConnectRejected     = &ConnectError{Kind: ConnectClosedWithError}
	ErrInvalidFormat       = &RelayError{Kind: RelayInvalidFormat}
	ErrPeerClosed          = &RelayError{Kind: RelayPeerClosed}
	ErrTransientProcessing = &RelayError{Kind: RelayTransientProcessing}
)

// CloseEventFor maps a session error to the close frame sent to the client.
// Unknown errors map to 1011.
func CloseEventFor(err error) CloseEvent {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case AuthTimeout:
			return CloseEvent{Code: ClosePolicyViolation, Reason: ReasonAuthTimeout}
		case AuthInvalidJSON:
			return CloseEvent{Code: ClosePolicyViolation, Reason: ReasonInvalidAuthMessage}
		default:
			return CloseEvent{Code: ClosePolicyViolation, Reason: ReasonMissingToken}
		}
	}

	var connErr *ConnectError
	if errors.As(err, &connErr) {
		if connErr.Kind == ConnectClosedWithError {
			return CloseEvent{Code: CloseInternalError, Reason: ReasonUpstreamClosed}
		}
		return CloseEvent{Code: CloseInternalError, Reason: ReasonConnectFailed}
	}

	var relayErr *RelayError
	if errors.As(err, &relayErr) && relayErr.Kind == RelayInvalidFormat {
		return CloseEvent{Code: ClosePolicyViolation, Reason: ReasonInvalidJSON}
	}

	return CloseEvent{Code: CloseInternalError, Reason: ReasonUnexpected}
}
