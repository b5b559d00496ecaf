package tls

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/logging"
)

// DefaultReloadDebounce is the quiet period after the last file event before
// the pair is reloaded. Renewal tools usually write the cert and key
// separately.
const DefaultReloadDebounce = 250 * time.Millisecond

// ReloadObserver is notified after every reload attempt.
type ReloadObserver interface {
	CertificateReloaded(err error)
}

// Reloader serves a certificate/key pair and replaces it when the files
// change on disk. A failed reload keeps the previous pair.
type Reloader struct {
	certFile string
	keyFile  string
	debounce time.Duration
	logger   *logging.Logger
	observer ReloadObserver

	mu   sync.RWMutex
	cert *tls.Certificate
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithReloadLogger sets the logger.
func WithReloadLogger(logger *logging.Logger) ReloaderOption {
	return func(r *Reloader) {
		r.logger = logger
	}
}

// WithReloadObserver sets the reload observer.
func WithReloadObserver(observer ReloadObserver) ReloaderOption {
	return func(r *Reloader) {
		r.observer = observer
	}
}

// WithDebounce sets the debounce interval.
func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *Reloader) {
		r.debounce = d
	}
}

// NewReloader loads the pair once and fails if it is unusable.
func NewReloader(certFile, keyFile string, opts ...ReloaderOption) (*Reloader, error) {
	r := &Reloader{
		certFile: filepath.Clean(certFile),
		keyFile:  filepath.Clean(keyFile),
		debounce: DefaultReloadDebounce,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}

	cert, err := LoadKeyPair(r.certFile, r.keyFile)
	if err != nil {
		return nil, err
	}
	r.cert = cert
	r.logLoaded("certificate loaded", cert.Leaf)
	return r, nil
}

// Reload reads the pair from disk and swaps it in if valid.
func (r *Reloader) Reload() error {
	cert, err := LoadKeyPair(r.certFile, r.keyFile)
	if r.observer != nil {
		r.observer.CertificateReloaded(err)
	}
	if err != nil {
		r.logger.Error("certificate reload failed, keeping previous certificate",
			"cert_file", r.certFile,
			"error", err,
		)
		return err
	}

	r.mu.Lock()
	r.cert = cert
	r.mu.Unlock()

	r.logLoaded("certificate reloaded", cert.Leaf)
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// Leaf returns the parsed serving certificate.
func (r *Reloader) Leaf() *x509.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert.Leaf
}

// Check fails when the serving certificate is outside its validity window.
// It has the signature of a readiness check.
func (r *Reloader) Check(ctx context.Context) error {
	leaf := r.Leaf()
	if leaf == nil {
		return errors.New("no certificate loaded")
	}
	return ValidateX509Certificate(leaf, time.Now())
}

// Watch reloads the pair on file changes until ctx is cancelled. The parent
// directories are watched rather than the files so that atomic renames and
// Kubernetes secret symlink swaps are seen.
func (r *Reloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dirs := map[string]struct{}{
		filepath.Dir(r.certFile): {},
		filepath.Dir(r.keyFile):  {},
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	r.logger.Info("watching certificate files",
		"cert_file", r.certFile,
		"key_file", r.keyFile,
		"debounce_ms", r.debounce.Milliseconds(),
	)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !r.relevant(event) {
				continue
			}
			r.logger.Debug("certificate file event", "path", event.Name, "op", event.Op.String())

			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(r.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				_ = r.Reload()
			})
			timerMu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			r.logger.Error("certificate watcher error", "error", err)
		}
	}
}

func (r *Reloader) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	if name == r.certFile || name == r.keyFile {
		return true
	}
	// Secret volumes publish updates by swapping the ..data symlink.
	return strings.HasPrefix(filepath.Base(name), "..data")
}

func (r *Reloader) logLoaded(msg string, leaf *x509.Certificate) {
	if leaf == nil {
		return
	}
	r.logger.Info(msg,
		"subject", leaf.Subject.CommonName,
		"issuer", leaf.Issuer.CommonName,
		"expires_at", leaf.NotAfter.Format(time.RFC3339),
	)
}
