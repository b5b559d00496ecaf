package handlers

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/proxy"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/proxy/middleware"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/logging"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/tracing"

	"github.com/gorilla/websocket"
)

// SessionServer runs one relay session over an accepted client channel.
// *proxy.Supervisor implements it.
type SessionServer interface {
	Serve(ctx context.Context, client proxy.Channel, remoteAddr string) error
}

// WebSocketHandler upgrades client connections and hands each one to the
// session server. It blocks for the lifetime of the session.
type WebSocketHandler struct {
	sessions     SessionServer
	upgrader     websocket.Upgrader
	readLimit    int64
	closeTimeout time.Duration
	baseCtx      context.Context
	logger       *logging.Logger
	draining     atomic.Bool
}

// Option configures a WebSocketHandler.
type Option func(*WebSocketHandler)

// WithBaseContext ties every session to ctx. Cancelling it cancels sessions
// that are still authenticating or connecting.
func WithBaseContext(ctx context.Context) Option {
	return func(h *WebSocketHandler) {
		h.baseCtx = ctx
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(h *WebSocketHandler) {
		h.logger = logger
	}
}

// NewWebSocketHandler creates a handler from the relay configuration.
func NewWebSocketHandler(cfg *config.RelayConfig, sessions SessionServer, opts ...Option) *WebSocketHandler {
	h := &WebSocketHandler{
		sessions:     sessions,
		readLimit:    cfg.MaxMessageBytes,
		closeTimeout: cfg.CloseGracePeriod,
		logger:       logging.Discard(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			EnableCompression: cfg.EnableCompression,
			CheckOrigin:       middleware.OriginChecker(cfg.AllowedOrigins),
		},
	}
	h.upgrader.Error = func(w http.ResponseWriter, r *http.Request, status int, reason error) {
		writeError(w, status, reason.Error())
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Drain makes the handler refuse new upgrades with 503. Sessions already
// running are unaffected.
func (h *WebSocketHandler) Drain() {
	h.draining.Store(true)
}

// ServeHTTP implements http.Handler.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		writeError(w, http.StatusServiceUnavailable, "server shutting down")
		return
	}
	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Upgrade", "websocket")
		writeError(w, http.StatusUpgradeRequired, "expected WebSocket upgrade")
		return
	}

	var respHeader http.Header
	if id := w.Header().Get(middleware.RequestIDHeader); id != "" {
		respHeader = http.Header{middleware.RequestIDHeader: {id}}
	}
	conn, err := h.upgrader.Upgrade(w, r, respHeader)
	if err != nil {
		// The upgrader has already written the error response.
		h.logger.DebugContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	ctx, cancel := h.sessionContext(r)
	defer cancel()

	client := proxy.NewWebSocketChannel(conn, h.closeTimeout)
	if err := h.sessions.Serve(ctx, client, r.RemoteAddr); err != nil {
		h.logger.DebugContext(ctx, "session ended with error", "error", err)
	}
}

// sessionContext keeps the request values (request ID, trace context) but not
// the request's cancellation, which does not apply to hijacked connections.
func (h *WebSocketHandler) sessionContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := tracing.Extract(context.WithoutCancel(r.Context()), r.Header)
	ctx, cancel := context.WithCancel(ctx)
	if h.baseCtx == nil {
		return ctx, cancel
	}
	stop := context.AfterFunc(h.baseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
