package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultCloseTimeout bounds writing a close frame when none is configured.
const DefaultCloseTimeout = time.Second

// WebSocketChannel adapts a gorilla connection to the Channel interface.
//
// One goroutine may call Receive while others call Send and Close. Text and
// binary frames are both delivered. Messages are always sent as text.
type WebSocketChannel struct {
	conn         *websocket.Conn
	closeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// NewWebSocketChannel wraps conn. closeTimeout bounds the close frame write.
func NewWebSocketChannel(conn *websocket.Conn, closeTimeout time.Duration) *WebSocketChannel {
	if closeTimeout <= 0 {
		closeTimeout = DefaultCloseTimeout
	}
	return &WebSocketChannel{
		conn:         conn,
		closeTimeout: closeTimeout,
	}
}

// Receive reads the next data message.
func (c *WebSocketChannel) Receive(ctx context.Context) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrChannelClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, c.readError(ctx, err)
	}
	// Unblock the read when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, c.readError(ctx, err)
	}
	return data, nil
}

// readError translates a gorilla read error into the Channel contract.
func (c *WebSocketChannel) readError(ctx context.Context, err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return &PeerCloseError{Code: closeErr.Code, Text: closeErr.Text}
	}
	if c.closed.Load() {
		return ErrChannelClosed
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
			return context.DeadlineExceeded
		}
	}
	if errors.Is(err, websocket.ErrReadLimit) {
		return &PeerCloseError{Code: websocket.CloseMessageTooBig, Text: err.Error()}
	}
	return &PeerCloseError{Code: websocket.CloseAbnormalClosure, Text: err.Error()}
}

// Send writes msg as a single text frame. Every write failure leaves the
// connection unusable, so all of them wrap ErrChannelClosed.
func (c *WebSocketChannel) Send(ctx context.Context, msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return ErrChannelClosed
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %v", ErrChannelClosed, err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrChannelClosed, err)
	}
	return nil
}

// Close sends a close frame with code and reason, then closes the
// underlying connection. Later calls return the first result.
func (c *WebSocketChannel) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		msg := websocket.FormatCloseMessage(code, reason)
		err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.closeTimeout))
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) && !errors.Is(err, net.ErrClosed) {
			c.closeErr = fmt.Errorf("failed to send close frame: %w", err)
		}
		if err := c.conn.Close(); err != nil && c.closeErr == nil && !errors.Is(err, net.ErrClosed) {
			c.closeErr = err
		}
	})
	return c.closeErr
}

// RemoteAddr returns the peer address.
func (c *WebSocketChannel) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
