package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	if got := New(0).checkTimeout; got != 5*time.Second {
		t.Errorf("default timeout = %v", got)
	}
	if got := New(time.Second).checkTimeout; got != time.Second {
		t.Errorf("custom timeout = %v", got)
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("b", func(context.Context) error { return nil })
	c.RegisterCheck("a", func(context.Context) error { return nil })

	names := c.Checks()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Checks() = %v", names)
	}

	c.UnregisterCheck("a")
	if names := c.Checks(); len(names) != 1 || names[0] != "b" {
		t.Errorf("after unregister Checks() = %v", names)
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantFailed string
	}{
		{
			name:       "no checks",
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"tls_certificate": func(context.Context) error { return nil },
				"upstream_config": func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"tls_certificate": func(context.Context) error { return errors.New("expired") },
				"upstream_config": func(context.Context) error { return nil },
			},
			wantStatus: StatusDegraded,
			wantFailed: "tls_certificate",
		},
		{
			name: "timeout",
			checks: map[string]CheckFunc{
				"slow": func(ctx context.Context) error {
					<-ctx.Done()
					time.Sleep(50 * time.Millisecond)
					return nil
				},
			},
			wantStatus: StatusDegraded,
			wantFailed: "slow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(20 * time.Millisecond)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			report := c.Readiness(context.Background())
			if report.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", report.Status, tt.wantStatus)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("got %d results, want %d", len(report.Checks), len(tt.checks))
			}
			if tt.wantFailed != "" {
				result := report.Checks[tt.wantFailed]
				if result.Status != StatusUnhealthy || result.Message == "" {
					t.Errorf("check %q = %+v, want unhealthy with message", tt.wantFailed, result)
				}
			}
		})
	}
}

func TestReadinessWhileDraining(t *testing.T) {
	c := New(time.Second)
	called := false
	c.RegisterCheck("upstream_config", func(context.Context) error {
		called = true
		return nil
	})
	c.Drain()

	report := c.Readiness(context.Background())
	if report.Status != StatusNotReady || report.Ready() {
		t.Errorf("status = %q, want not_ready", report.Status)
	}
	if called {
		t.Error("checks should not run while draining")
	}
}

func TestSessionCounter(t *testing.T) {
	c := New(time.Second)
	if c.Liveness(context.Background()).Sessions != nil {
		t.Error("sessions should be omitted without a counter")
	}

	c.SetSessionCounter(func() int { return 4 })
	if got := c.Liveness(context.Background()).Sessions; got == nil || *got != 4 {
		t.Errorf("sessions = %v, want 4", got)
	}
}

func TestHandlers(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("upstream_config", func(context.Context) error { return errors.New("bad scheme") })

	mux := http.NewServeMux()
	c.Register(mux, Paths{Liveness: "/health", Readiness: "/ready", Version: "/version"}, "1.2.3", "abc", "today")

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "liveness", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "liveness head", method: http.MethodHead, path: "/health", wantStatus: http.StatusOK},
		{name: "readiness degraded", method: http.MethodGet, path: "/ready", wantStatus: http.StatusServiceUnavailable},
		{name: "version", method: http.MethodGet, path: "/version", wantStatus: http.StatusOK},
		{name: "post rejected", method: http.MethodPost, path: "/health", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.method == http.MethodHead && w.Body.Len() != 0 {
				t.Error("HEAD response has a body")
			}
		})
	}

	t.Run("version body", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

		var info VersionInfo
		if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
			t.Fatal(err)
		}
		if info.Version != "1.2.3" || info.Commit != "abc" || info.GoVersion == "" {
			t.Errorf("unexpected version info: %+v", info)
		}
	})
}

func TestStaticCheck(t *testing.T) {
	calls := 0
	check := StaticCheck(func() error {
		calls++
		return errors.New("invalid upstream URL")
	})

	for i := 0; i < 3; i++ {
		if err := check(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	}
	if calls != 1 {
		t.Errorf("validate called %d times, want 1", calls)
	}
}
