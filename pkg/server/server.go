package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/proxy"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/proxy/handlers"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/proxy/middleware"
	tlspkg "github.com/dineshabey/gemini-multimodal-api-websocket/pkg/security/tls"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/health"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/logging"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/metrics"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/tracing"
)

// BuildInfo is reported on the version endpoint.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Server is the relay listener. It owns the session registry and every
// component a session needs.
type Server struct {
	cfg       *config.Config
	logger    *logging.Logger
	collector *metrics.Collector
	tracer    *tracing.Tracer
	build     BuildInfo
	listener  net.Listener

	registry  *proxy.Registry
	ws        *handlers.WebSocketHandler
	checker   *health.Checker
	reloader  *tlspkg.Reloader
	tlsConfig *tls.Config

	baseCtx    context.Context
	cancelBase context.CancelFunc
	httpServer *http.Server

	mu           sync.Mutex
	running      bool
	ready        chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records relay metrics in collector and serves them on the
// metrics path.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Server) {
		s.collector = collector
	}
}

// WithTracing creates session spans with tracer.
func WithTracing(tracer *tracing.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithBuildInfo sets the version endpoint payload.
func WithBuildInfo(info BuildInfo) Option {
	return func(s *Server) {
		s.build = info
	}
}

// WithListener serves on an existing listener instead of binding
// ListenAddress.
func WithListener(l net.Listener) Option {
	return func(s *Server) {
		s.listener = l
	}
}

// New wires the relay. With TLS enabled the certificate pair is loaded here,
// so a bad pair fails before the listener is bound.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logging.Discard(),
		registry: proxy.NewRegistry(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())

	if cfg.Security.TLS.Enabled {
		if err := s.setupTLS(); err != nil {
			return nil, err
		}
	}

	s.checker = health.New(cfg.Telemetry.Health.CheckTimeout)
	s.checker.SetSessionCounter(s.registry.Count)
	s.checker.RegisterCheck("upstream_config", health.StaticCheck(func() error {
		return config.ValidateUpstreamURL(cfg.Upstream.URL)
	}))
	if s.reloader != nil {
		s.checker.RegisterCheck("tls_certificate", s.reloader.Check)
	}

	s.ws = handlers.NewWebSocketHandler(&cfg.Relay, s.supervisor(),
		handlers.WithBaseContext(s.baseCtx),
		handlers.WithLogger(s.logger),
	)
	return s, nil
}

func (s *Server) setupTLS() error {
	tlsCfg := &s.cfg.Security.TLS

	reloadOpts := []tlspkg.ReloaderOption{tlspkg.WithReloadLogger(s.logger.With("component", "tls"))}
	if s.collector != nil {
		reloadOpts = append(reloadOpts, tlspkg.WithReloadObserver(s.collector))
	}
	reloader, err := tlspkg.NewReloader(tlsCfg.CertFile, tlsCfg.KeyFile, reloadOpts...)
	if err != nil {
		return fmt.Errorf("load TLS certificate: %w", err)
	}

	tlsConfig, err := tlspkg.ServerConfig(tlsCfg, reloader)
	if err != nil {
		return fmt.Errorf("configure TLS: %w", err)
	}

	s.reloader = reloader
	s.tlsConfig = tlsConfig
	return nil
}

func (s *Server) supervisor() *proxy.Supervisor {
	var observer proxy.Observer
	if s.collector != nil {
		observer = s.collector
	}

	connector := proxy.NewWebSocketConnector(&s.cfg.Upstream,
		proxy.WithUpstreamCloseTimeout(s.cfg.Relay.CloseGracePeriod),
		proxy.WithUpstreamReadLimit(s.cfg.Relay.MaxMessageBytes),
	)

	engineOpts := []proxy.EngineOption{
		proxy.WithEngineLogger(s.logger.With("component", "relay")),
		proxy.WithDebugMessages(s.cfg.Telemetry.Logging.DebugMessages),
	}
	supervisorOpts := []proxy.SupervisorOption{
		proxy.WithRegistry(s.registry),
		proxy.WithLogger(s.logger.With("component", "session")),
	}
	if observer != nil {
		engineOpts = append(engineOpts, proxy.WithEngineObserver(observer))
		supervisorOpts = append(supervisorOpts, proxy.WithObserver(observer))
	}
	if s.tracer != nil {
		supervisorOpts = append(supervisorOpts, proxy.WithTracer(s.tracer.Tracer()))
	}

	return proxy.NewSupervisor(
		proxy.NewAuthGate(s.cfg.Relay.AuthTimeout),
		connector,
		proxy.NewEngine(engineOpts...),
		supervisorOpts...,
	)
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Relay.Path, s.ws)

	if s.collector != nil && s.cfg.Telemetry.Metrics.Enabled {
		mux.Handle(s.cfg.Telemetry.Metrics.Path, s.collector.Handler())
	}

	healthCfg := &s.cfg.Telemetry.Health
	if healthCfg.Enabled {
		s.checker.Register(mux, health.Paths{
			Liveness:  healthCfg.LivenessPath,
			Readiness: healthCfg.ReadinessPath,
			Version:   healthCfg.VersionPath,
		}, s.build.Version, s.build.Commit, s.build.BuildTime)
	}
	if healthCfg.SessionsPath != "" {
		mux.Handle(healthCfg.SessionsPath, handlers.NewSessionsHandler(s.registry))
	}

	var handler http.Handler = mux
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)
	return handler
}

// Registry returns the live session registry.
func (s *Server) Registry() *proxy.Registry {
	return s.registry
}

// Checker returns the health checker.
func (s *Server) Checker() *health.Checker {
	return s.checker
}

// Ready is closed once the listener is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start serves until ctx is cancelled or the listener fails, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.running = true

	if s.listener == nil {
		l, err := net.Listen("tcp", s.cfg.Relay.ListenAddress)
		if err != nil {
			s.running = false
			s.mu.Unlock()
			return fmt.Errorf("listen on %s: %w", s.cfg.Relay.ListenAddress, err)
		}
		s.listener = l
	}
	listener := s.listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.Relay.ReadHeaderTimeout,
		TLSConfig:         s.tlsConfig,
		ErrorLog:          logging.NewStdLogger(s.logger, "http server"),
	}
	s.mu.Unlock()

	if s.reloader != nil {
		s.startCertificateMonitors(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.tlsConfig != nil {
			err = s.httpServer.ServeTLS(listener, "", "")
		} else {
			err = s.httpServer.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("relay listening",
		"address", listener.Addr().String(),
		"path", s.cfg.Relay.Path,
		"tls", s.tlsConfig != nil,
		"upstream", s.cfg.Upstream.URL,
	)
	close(s.ready)

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	case err := <-errCh:
		if err == nil {
			return s.Shutdown(context.Background())
		}
		_ = s.Shutdown(context.Background())
		return fmt.Errorf("serve: %w", err)
	}
}

func (s *Server) startCertificateMonitors(ctx context.Context) {
	tlsCfg := &s.cfg.Security.TLS
	logger := s.logger.With("component", "tls")

	if tlsCfg.Watch {
		go func() {
			if err := s.reloader.Watch(ctx); err != nil {
				logger.Error("certificate watcher stopped", "error", err)
			}
		}()
	}

	expiryOpts := []tlspkg.ExpiryOption{tlspkg.WithExpiryLogger(logger)}
	if s.collector != nil {
		expiryOpts = append(expiryOpts, tlspkg.WithExpiryObserver(s.collector))
	}
	monitor := tlspkg.NewExpiryMonitor(s.reloader, tlsCfg, expiryOpts...)
	if err := monitor.Start(ctx); err != nil {
		logger.Error("certificate expiry monitor not started", "error", err)
	}
}

// Shutdown stops accepting connections, closes every live session with 1001
// and waits up to ShutdownTimeout for them to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.shutdown(ctx)
	})
	return s.shutdownErr
}

func (s *Server) shutdown(ctx context.Context) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		s.cancelBase()
		return nil
	}

	timeout := s.cfg.Relay.ShutdownTimeout
	s.logger.Info("starting graceful shutdown",
		"timeout", timeout.String(),
		"sessions", s.registry.Count(),
	)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.checker.Drain()
	s.ws.Drain()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	closed := s.registry.CloseAll(proxy.CloseGoingAway, proxy.ReasonShuttingDown)
	s.cancelBase()
	if err := s.registry.Wait(ctx); err != nil {
		s.logger.Warn("sessions still running after shutdown timeout",
			"remaining", s.registry.Count(),
		)
		errs = append(errs, fmt.Errorf("wait for sessions: %w", err))
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("relay stopped", "sessions_closed", closed)
	return errors.Join(errs...)
}
