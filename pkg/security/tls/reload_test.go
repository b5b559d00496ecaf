package tls

import (
	"context"
	"crypto/tls"
	"os"
	"sync"
	"testing"
	"time"
)

type reloadRecorder struct {
	mu      sync.Mutex
	results []error
}

func (r *reloadRecorder) CertificateReloaded(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, err)
}

func (r *reloadRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func serial(t *testing.T, r *Reloader) string {
	t.Helper()
	cert, err := r.GetCertificate(&tls.ClientHelloInfo{})
	if err != nil || cert == nil || cert.Leaf == nil {
		t.Fatalf("GetCertificate = %v, %v", cert, err)
	}
	return cert.Leaf.SerialNumber.String()
}

func TestNewReloader(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := validPair(t, dir)

	r, err := NewReloader(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}
	if r.Leaf() == nil {
		t.Fatal("Leaf() is nil after construction")
	}
	if err := r.Check(context.Background()); err != nil {
		t.Errorf("Check: %v", err)
	}

	if _, err := NewReloader(certFile, dir+"/missing.key"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestReloaderReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := validPair(t, dir)
	recorder := &reloadRecorder{}

	r, err := NewReloader(certFile, keyFile, WithReloadObserver(recorder))
	if err != nil {
		t.Fatal(err)
	}
	before := serial(t, r)

	t.Run("replaces pair", func(t *testing.T) {
		validPair(t, dir)
		if err := r.Reload(); err != nil {
			t.Fatalf("Reload: %v", err)
		}
		if serial(t, r) == before {
			t.Error("certificate was not replaced")
		}
	})

	t.Run("keeps previous pair on failure", func(t *testing.T) {
		current := serial(t, r)
		if err := os.WriteFile(certFile, []byte("garbage"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := r.Reload(); err == nil {
			t.Fatal("expected reload error")
		}
		if serial(t, r) != current {
			t.Error("certificate changed after failed reload")
		}
	})

	if recorder.count() != 2 {
		t.Errorf("observer saw %d reloads, want 2", recorder.count())
	}
	if recorder.results[0] != nil || recorder.results[1] == nil {
		t.Errorf("observer results = %v", recorder.results)
	}
}

func TestReloaderWatch(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := validPair(t, dir)
	recorder := &reloadRecorder{}

	r, err := NewReloader(certFile, keyFile,
		WithReloadObserver(recorder),
		WithDebounce(20*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	before := serial(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	validPair(t, dir)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if serial(t, r) != before {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("certificate not reloaded after file change (reload attempts: %d)", recorder.count())
}
