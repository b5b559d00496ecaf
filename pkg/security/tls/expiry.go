package tls

import (
	"context"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"
	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/logging"
)

// LeafSource returns the certificate currently being served.
type LeafSource interface {
	Leaf() *x509.Certificate
}

// ExpiryObserver receives the time left before the certificate expires.
type ExpiryObserver interface {
	SetCertificateExpiry(remaining time.Duration)
}

// ExpiryMonitor checks the serving certificate on a cron schedule, reports
// the remaining validity and warns inside the warning window.
type ExpiryMonitor struct {
	source   LeafSource
	schedule string
	warning  time.Duration
	observer ExpiryObserver
	logger   *logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// ExpiryOption configures an ExpiryMonitor.
type ExpiryOption func(*ExpiryMonitor)

// WithExpiryObserver sets the observer.
func WithExpiryObserver(observer ExpiryObserver) ExpiryOption {
	return func(m *ExpiryMonitor) {
		m.observer = observer
	}
}

// WithExpiryLogger sets the logger.
func WithExpiryLogger(logger *logging.Logger) ExpiryOption {
	return func(m *ExpiryMonitor) {
		m.logger = logger
	}
}

// NewExpiryMonitor creates a monitor using the schedule and warning window
// from cfg.
func NewExpiryMonitor(source LeafSource, cfg *config.TLSConfig, opts ...ExpiryOption) *ExpiryMonitor {
	m := &ExpiryMonitor{
		source:   source,
		schedule: cfg.ExpiryCheckSchedule,
		warning:  cfg.ExpiryWarning,
		logger:   logging.Discard(),
		now:      time.Now,
		cron:     cron.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start checks once and then on every tick of the schedule until ctx is
// cancelled. An empty schedule only performs the initial check.
func (m *ExpiryMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Check()
	if m.schedule == "" {
		return nil
	}

	if _, err := cron.ParseStandard(m.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", m.schedule, err)
	}
	if _, err := m.cron.AddFunc(m.schedule, func() { m.Check() }); err != nil {
		return fmt.Errorf("schedule expiry check: %w", err)
	}
	m.cron.Start()
	m.running = true

	m.logger.Info("certificate expiry monitor started",
		"schedule", m.schedule,
		"warning_window", m.warning.String(),
	)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()
	return nil
}

// Stop stops the schedule and waits for a running check to finish.
func (m *ExpiryMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	<-m.cron.Stop().Done()
}

// Check reports the remaining validity of the serving certificate.
func (m *ExpiryMonitor) Check() time.Duration {
	leaf := m.source.Leaf()
	if leaf == nil {
		return 0
	}

	remaining := leaf.NotAfter.Sub(m.now())
	if m.observer != nil {
		m.observer.SetCertificateExpiry(remaining)
	}

	switch {
	case remaining <= 0:
		m.logger.Error("certificate has expired",
			"subject", leaf.Subject.CommonName,
			"expired_at", leaf.NotAfter.Format(time.RFC3339),
		)
	case remaining < m.warning:
		m.logger.Warn("certificate expiring soon",
			"subject", leaf.Subject.CommonName,
			"expires_in_days", int(remaining.Hours()/24),
			"expires_at", leaf.NotAfter.Format(time.RFC3339),
		)
	}
	return remaining
}
