package proxy

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

// Channel is one leg of a session: a duplex, message-oriented connection.
//
// Receive blocks until a message arrives, the peer closes, or ctx is done.
// A peer close is reported as a *PeerCloseError, a local Close as
// ErrChannelClosed, and ctx expiry as the context error.
//
// Send errors that wrap ErrChannelClosed are fatal for the leg. Any other Send
// error is treated as transient.
//
// Close is idempotent. Only the first call sends a close frame.
type Channel interface {
	Receive(ctx context.Context) ([]byte, error)
	Send(ctx context.Context, msg []byte) error
	Close(code int, reason string) error
}

// ErrChannelClosed is returned once a channel can no longer carry messages.
var ErrChannelClosed = errors.New("channel closed")

// PeerCloseError reports that the remote end of a channel went away.
type PeerCloseError struct {
	// Code is the close code received, or 1006 when the connection dropped
	// without a close frame
	Code int

	// Text is the close reason or the transport error
	Text string
}

// Error implements the error interface.
func (e *PeerCloseError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("peer closed connection (code %d)", e.Code)
	}
	return fmt.Sprintf("peer closed connection (code %d): %s", e.Code, e.Text)
}

// Is makes every peer close match ErrChannelClosed.
func (e *PeerCloseError) Is(target error) bool {
	return target == ErrChannelClosed
}

// Normal reports whether the peer closed cleanly.
func (e *PeerCloseError) Normal() bool {
	switch e.Code {
	case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived:
		return true
	default:
		return false
	}
}
