package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals are the signals that trigger a graceful shutdown.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SignalContext returns a context cancelled on the first shutdown signal. A
// second signal calls onForce, which normally exits the process. stop
// releases the signal handler.
func SignalContext(parent context.Context, onForce func(os.Signal)) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, ShutdownSignals...)
	done := make(chan struct{})

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-done:
			return
		}
		select {
		case sig := <-sigCh:
			if onForce != nil {
				onForce(sig)
			}
		case <-done:
		}
	}()

	var stopped bool
	return ctx, func() {
		if stopped {
			return
		}
		stopped = true
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
}
