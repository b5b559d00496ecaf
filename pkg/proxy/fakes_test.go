package proxy

import (
	"context"
	"sync"
	"testing"
	"time"
)

const testWait = 2 * time.Second

type frame struct {
	data []byte
	err  error
}

// memChannel is an in-memory Channel. Frames pushed to it are returned by
// Receive in order; sent messages are collected on the sent channel.
type memChannel struct {
	incoming chan frame
	sent     chan []byte
	done     chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	closeEv   *CloseEvent
	sendErr   func(msg []byte) error
}

func newMemChannel() *memChannel {
	return &memChannel{
		incoming: make(chan frame, 16),
		sent:     make(chan []byte, 64),
		done:     make(chan struct{}),
	}
}

func (c *memChannel) push(msg string) {
	c.incoming <- frame{data: []byte(msg)}
}

func (c *memChannel) peerClose(code int, text string) {
	c.incoming <- frame{err: &PeerCloseError{Code: code, Text: text}}
}

func (c *memChannel) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-c.done:
		return nil, ErrChannelClosed
	default:
	}
	select {
	case f := <-c.incoming:
		return f.data, f.err
	case <-c.done:
		return nil, ErrChannelClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *memChannel) Send(ctx context.Context, msg []byte) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}
	c.mu.Lock()
	hook := c.sendErr
	c.mu.Unlock()
	if hook != nil {
		if err := hook(msg); err != nil {
			return err
		}
	}
	select {
	case c.sent <- append([]byte(nil), msg...):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *memChannel) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeEv = &CloseEvent{Code: code, Reason: reason}
		c.mu.Unlock()
		close(c.done)
	})
	return nil
}

func (c *memChannel) setSendErr(fn func(msg []byte) error) {
	c.mu.Lock()
	c.sendErr = fn
	c.mu.Unlock()
}

// closed returns the first close event, or nil if Close was never called.
func (c *memChannel) closed() *CloseEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeEv
}

func (c *memChannel) waitClosed(t *testing.T) CloseEvent {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(testWait):
		t.Fatal("timed out waiting for channel close")
	}
	return *c.closed()
}

func (c *memChannel) expectSent(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-c.sent:
		if string(got) != want {
			t.Fatalf("sent %s, want %s", got, want)
		}
	case <-time.After(testWait):
		t.Fatalf("timed out waiting for %s", want)
	}
}

func (c *memChannel) expectNothingSent(t *testing.T) {
	t.Helper()
	select {
	case got := <-c.sent:
		t.Fatalf("unexpected message sent: %s", got)
	default:
	}
}

// recordingObserver counts observer events.
type recordingObserver struct {
	mu          sync.Mutex
	started     int
	outcomes    []string
	authFails   []string
	connected   int
	connectFail []string
	relayed     map[string]int
	rejected    map[string]int
	transient   map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		relayed:   make(map[string]int),
		rejected:  make(map[string]int),
		transient: make(map[string]int),
	}
}

func (o *recordingObserver) SessionStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *recordingObserver) SessionEnded(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) AuthFailed(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.authFails = append(o.authFails, reason)
}

func (o *recordingObserver) UpstreamConnected(time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.connected++
}

func (o *recordingObserver) UpstreamFailed(kind string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.connectFail = append(o.connectFail, kind)
}

func (o *recordingObserver) MessageRelayed(direction string, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.relayed[direction]++
}

func (o *recordingObserver) MessageRejected(direction string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected[direction]++
}

func (o *recordingObserver) TransientError(direction string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transient[direction]++
}

func (o *recordingObserver) outcome() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.outcomes) == 0 {
		return ""
	}
	return o.outcomes[len(o.outcomes)-1]
}

func (o *recordingObserver) count(m map[string]int, direction string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return m[direction]
}

// fakeConnector hands out a prepared upstream channel or error.
type fakeConnector struct {
	mu       sync.Mutex
	upstream Channel
	err      error
	panicMsg string
	calls    int
	token    string
}

func (f *fakeConnector) Connect(ctx context.Context, token string) (Channel, error) {
	f.mu.Lock()
	f.calls++
	f.token = token
	upstream, err, panicMsg := f.upstream, f.err, f.panicMsg
	f.mu.Unlock()

	if panicMsg != "" {
		panic(panicMsg)
	}
	if err != nil {
		return nil, err
	}
	return upstream, nil
}

func (f *fakeConnector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeConnector) lastToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}
