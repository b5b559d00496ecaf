package health

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Status values reported by the probes.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusNotReady  = "not_ready"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports whether a component can serve traffic. A nil error means
// healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of a single readiness check.
type CheckResult struct {
	Status   string  `json:"status"`
	Message  string  `json:"message,omitempty"`
	Duration float64 `json:"duration_ms"`
}

// Report is the body returned by the liveness and readiness probes.
type Report struct {
	Status    string                 `json:"status"`
	Sessions  *int                   `json:"sessions,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Ready reports whether the report should be served with 200.
func (r Report) Ready() bool {
	return r.Status == StatusOK || r.Status == StatusReady
}

// Checker runs readiness checks. Once Drain is called the relay is reported
// as not ready regardless of the registered checks, so load balancers stop
// routing new clients while live sessions finish.
type Checker struct {
	mu           sync.RWMutex
	checks       map[string]CheckFunc
	checkTimeout time.Duration
	sessions     func() int
	draining     atomic.Bool
}

// New creates a checker. A zero timeout defaults to 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout <= 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck adds or replaces a named readiness check.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes a named readiness check.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Checks returns the registered check names in sorted order.
func (c *Checker) Checks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetSessionCounter makes the probes report the number of live sessions.
func (c *Checker) SetSessionCounter(count func() int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = count
}

// Drain marks the relay as shutting down.
func (c *Checker) Drain() {
	c.draining.Store(true)
}

// Draining reports whether Drain was called.
func (c *Checker) Draining() bool {
	return c.draining.Load()
}

// Liveness reports that the process is up. It never runs checks.
func (c *Checker) Liveness(ctx context.Context) Report {
	return Report{
		Status:    StatusOK,
		Sessions:  c.sessionCount(),
		Timestamp: time.Now(),
	}
}

// Readiness runs every registered check concurrently and aggregates them.
func (c *Checker) Readiness(ctx context.Context) Report {
	report := Report{
		Status:    StatusReady,
		Sessions:  c.sessionCount(),
		Checks:    make(map[string]CheckResult),
		Timestamp: time.Now(),
	}
	if c.Draining() {
		report.Status = StatusNotReady
		return report
	}

	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()
			result := c.run(ctx, check)

			mu.Lock()
			report.Checks[name] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	for _, result := range report.Checks {
		if result.Status != StatusOK {
			report.Status = StatusDegraded
			break
		}
	}
	return report
}

func (c *Checker) run(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		errCh <- check(ctx)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ErrCheckTimeout
	}

	result := CheckResult{
		Status:   StatusOK,
		Duration: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

func (c *Checker) sessionCount() *int {
	c.mu.RLock()
	count := c.sessions
	c.mu.RUnlock()
	if count == nil {
		return nil
	}
	n := count()
	return &n
}
