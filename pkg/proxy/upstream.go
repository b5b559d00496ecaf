package proxy

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/tracing"

	"github.com/gorilla/websocket"
)

// Connector opens the upstream leg of a session.
type Connector interface {
	// Connect dials the upstream with token as the bearer credential.
	// Failures are returned as *ConnectError.
	Connect(ctx context.Context, token string) (Channel, error)
}

// WebSocketConnector dials the single configured upstream URL.
type WebSocketConnector struct {
	url            string
	contentType    string
	propagateTrace bool
	closeTimeout   time.Duration
	readLimit      int64
	dialer         *websocket.Dialer
}

// ConnectorOption configures a WebSocketConnector.
type ConnectorOption func(*WebSocketConnector)

// WithTLSClientConfig sets the TLS configuration used for wss:// upstreams.
func WithTLSClientConfig(cfg *tls.Config) ConnectorOption {
	return func(c *WebSocketConnector) {
		c.dialer.TLSClientConfig = cfg
	}
}

// WithUpstreamCloseTimeout bounds the close frame write on the upstream leg.
func WithUpstreamCloseTimeout(d time.Duration) ConnectorOption {
	return func(c *WebSocketConnector) {
		c.closeTimeout = d
	}
}

// WithUpstreamReadLimit caps the size of messages read from the upstream.
func WithUpstreamReadLimit(n int64) ConnectorOption {
	return func(c *WebSocketConnector) {
		c.readLimit = n
	}
}

// NewWebSocketConnector creates a connector from the upstream configuration.
// The configuration is read once here.
func NewWebSocketConnector(cfg *config.UpstreamConfig, opts ...ConnectorOption) *WebSocketConnector {
	contentType := cfg.ContentType
	if contentType == "" {
		contentType = config.DefaultUpstreamContentType
	}

	c := &WebSocketConnector{
		url:            cfg.URL,
		contentType:    contentType,
		propagateTrace: cfg.PropagateTrace,
		closeTimeout:   DefaultCloseTimeout,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadBufferSize:   cfg.ReadBufferSize,
			WriteBufferSize:  cfg.WriteBufferSize,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the upstream endpoint.
func (c *WebSocketConnector) URL() string {
	return c.url
}

// Connect dials the upstream with Authorization and Content-Type headers.
// A handshake answered with a non-101 status is ConnectClosedWithError; any
// other failure is ConnectFailed.
func (c *WebSocketConnector) Connect(ctx context.Context, token string) (Channel, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("Content-Type", c.contentType)
	if c.propagateTrace {
		tracing.Inject(ctx, header)
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, &ConnectError{Kind: ConnectClosedWithError, StatusCode: resp.StatusCode, Cause: err}
		}
		if errors.Is(err, websocket.ErrBadHandshake) {
			return nil, &ConnectError{Kind: ConnectClosedWithError, Cause: err}
		}
		return nil, &ConnectError{Kind: ConnectFailed, Cause: err}
	}

	if c.readLimit > 0 {
		conn.SetReadLimit(c.readLimit)
	}
	return NewWebSocketChannel(conn, c.closeTimeout), nil
}
