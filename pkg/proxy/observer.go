package proxy

import "time"

// Observer receives session and message events. *metrics.Collector
// implements it.
type Observer interface {
	SessionStarted()
	SessionEnded(outcome string, duration time.Duration)
	AuthFailed(reason string)
	UpstreamConnected(duration time.Duration)
	UpstreamFailed(kind string, duration time.Duration)
	MessageRelayed(direction string, size int)
	MessageRejected(direction string)
	TransientError(direction string)
}

type nopObserver struct{}

func (nopObserver) SessionStarted() {}
func (nopObserver) SessionEnded(string, time.Duration) {}
func (nopObserver) AuthFailed(string) {}
func (nopObserver) UpstreamConnected(time.Duration) {}
func (nopObserver) UpstreamFailed(string, time.Duration) {}
func (nopObserver) MessageRelayed(string, int) {}
func (nopObserver) MessageRejected(string) {}
func (nopObserver) TransientError(string) {}
