package proxy

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func startRelay(t *testing.T, engine *Engine, client, upstream Channel) <-chan RelayResult {
	t.Helper()
	done := make(chan RelayResult, 1)
	go func() {
		done <- engine.Relay(context.Background(), client, upstream)
	}()
	return done
}

func waitRelay(t *testing.T, done <-chan RelayResult) RelayResult {
	t.Helper()
	select {
	case result := <-done:
		return result
	case <-time.After(testWait):
		t.Fatal("relay did not finish")
		return RelayResult{}
	}
}

func TestEngine_ForwardsBothDirections(t *testing.T) {
	client, upstream := newMemChannel(), newMemChannel()
	observer := newRecordingObserver()
	engine := NewEngine(WithEngineObserver(observer))
	done := startRelay(t, engine, client, upstream)

	client.push(`{"q":"hello"}`)
	upstream.expectSent(t, `{"q":"hello"}`)

	upstream.push(`{"b": 1, "a": [1, 2.50, "<tag>"]}`)
	client.expectSent(t, `{"a":[1,2.50,"<tag>"],"b":1}`)

	client.peerClose(CloseNormal, "bye")
	result := waitRelay(t, done)

	if result.First.Direction != ClientToUpstream || result.First.Kind != RelayPeerClosed {
		t.Errorf("unexpected first result: %v", result.First)
	}
	if result.Second == nil || result.Second.Direction != UpstreamToClient {
		t.Errorf("unexpected second result: %v", result.Second)
	}
	if ev := upstream.waitClosed(t); ev.Code != CloseNormal {
		t.Errorf("upstream close code = %d, want %d", ev.Code, CloseNormal)
	}
	if got := observer.count(observer.relayed, "client_to_upstream"); got != 1 {
		t.Errorf("client_to_upstream relayed = %d, want 1", got)
	}
	if got := observer.count(observer.relayed, "upstream_to_client"); got != 1 {
		t.Errorf("upstream_to_client relayed = %d, want 1", got)
	}
}

func TestEngine_PreservesOrder(t *testing.T) {
	client, upstream := newMemChannel(), newMemChannel()
	done := startRelay(t, NewEngine(), client, upstream)

	messages := []string{`{"n":1}`, `{"n":2}`, `{"n":3}`, `[]`, `"text"`, `42`}
	for _, msg := range messages {
		client.push(msg)
	}
	for _, msg := range messages {
		upstream.expectSent(t, msg)
	}

	upstream.peerClose(CloseNormal, "")
	waitRelay(t, done)
}

func TestEngine_InvalidJSONFromClient(t *testing.T) {
	client, upstream := newMemChannel(), newMemChannel()
	observer := newRecordingObserver()
	done := startRelay(t, NewEngine(WithEngineObserver(observer)), client, upstream)

	client.push(`{"q":"first"}`)
	upstream.expectSent(t, `{"q":"first"}`)
	client.push(`not json`)
	client.push(`{"q":"never"}`)

	result := waitRelay(t, done)

	if !errors.Is(result.First, ErrInvalidFormat) {
		t.Fatalf("expected invalid format, got %v", result.First)
	}
	if result.First.Direction != ClientToUpstream {
		t.Errorf("direction = %s, want client_to_upstream", result.First.Direction)
	}
	ev := client.waitClosed(t)
	if ev.Code != ClosePolicyViolation || ev.Reason != ReasonInvalidJSON {
		t.Errorf("client close = %+v, want 1008 %q", ev, ReasonInvalidJSON)
	}
	if ev := upstream.waitClosed(t); ev.Code != CloseNormal {
		t.Errorf("upstream close code = %d, want %d", ev.Code, CloseNormal)
	}
	upstream.expectNothingSent(t)
	if got := observer.count(observer.rejected, "client_to_upstream"); got != 1 {
		t.Errorf("rejected = %d, want 1", got)
	}
}

func TestEngine_UpstreamClose(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantCode   int
		wantReason string
	}{
		{name: "normal", code: CloseNormal, wantCode: CloseNormal},
		{name: "going away", code: CloseGoingAway, wantCode: CloseNormal},
		{name: "abnormal", code: 1006, wantCode: CloseInternalError, wantReason: ReasonUpstreamClosed},
		{name: "policy violation", code: ClosePolicyViolation, wantCode: CloseInternalError, wantReason: ReasonUpstreamClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, upstream := newMemChannel(), newMemChannel()
			done := startRelay(t, NewEngine(), client, upstream)

			upstream.peerClose(tt.code, "")
			result := waitRelay(t, done)

			if result.First.Direction != UpstreamToClient {
				t.Errorf("first direction = %s", result.First.Direction)
			}
			ev := client.waitClosed(t)
			if ev.Code != tt.wantCode || ev.Reason != tt.wantReason {
				t.Errorf("client close = %+v, want %d %q", ev, tt.wantCode, tt.wantReason)
			}
		})
	}
}

func TestEngine_InvalidJSONFromUpstream(t *testing.T) {
	client, upstream := newMemChannel(), newMemChannel()
	done := startRelay(t, NewEngine(), client, upstream)

	upstream.push(`{"broken"`)
	result := waitRelay(t, done)

	if result.First.Kind != RelayInvalidFormat || result.First.Direction != UpstreamToClient {
		t.Fatalf("unexpected result: %v", result.First)
	}
	if ev := upstream.waitClosed(t); ev.Code != ClosePolicyViolation {
		t.Errorf("upstream close code = %d, want %d", ev.Code, ClosePolicyViolation)
	}
	if ev := client.waitClosed(t); ev.Code != CloseInternalError {
		t.Errorf("client close code = %d, want %d", ev.Code, CloseInternalError)
	}
	client.expectNothingSent(t)
}

func TestEngine_TransientSendErrorContinues(t *testing.T) {
	client, upstream := newMemChannel(), newMemChannel()
	observer := newRecordingObserver()

	failures := 1
	upstream.setSendErr(func(msg []byte) error {
		if failures > 0 {
			failures--
			return errors.New("temporary write failure")
		}
		return nil
	})

	done := startRelay(t, NewEngine(WithEngineObserver(observer)), client, upstream)

	client.push(`{"n":1}`)
	client.push(`{"n":2}`)
	upstream.expectSent(t, `{"n":2}`)

	client.peerClose(CloseNormal, "")
	waitRelay(t, done)

	if got := observer.count(observer.transient, "client_to_upstream"); got != 1 {
		t.Errorf("transient errors = %d, want 1", got)
	}
}

func TestEngine_PanicIsTransient(t *testing.T) {
	client, upstream := newMemChannel(), newMemChannel()
	observer := newRecordingObserver()
	engine := NewEngine(WithEngineObserver(observer))
	engine.normalize = func(raw []byte) ([]byte, error) {
		if string(raw) == `{"panic":true}` {
			panic("unexpected")
		}
		return Normalize(raw)
	}

	done := startRelay(t, engine, client, upstream)

	client.push(`{"panic":true}`)
	client.push(`{"ok":true}`)
	upstream.expectSent(t, `{"ok":true}`)

	client.peerClose(CloseNormal, "")
	waitRelay(t, done)

	if got := observer.count(observer.transient, "client_to_upstream"); got != 1 {
		t.Errorf("transient errors = %d, want 1", got)
	}
	if ev := client.closed(); ev != nil && ev.Code == ClosePolicyViolation {
		t.Error("panic must not close the source as invalid format")
	}
}

func TestEngine_ClosedDestinationEndsLoop(t *testing.T) {
	tests := []struct {
		name    string
		sendErr error
	}{
		{"closed", ErrChannelClosed},
		{"broken pipe", fmt.Errorf("%w: write: broken pipe", ErrChannelClosed)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, upstream := newMemChannel(), newMemChannel()
			upstream.setSendErr(func([]byte) error { return tt.sendErr })

			done := startRelay(t, NewEngine(), client, upstream)
			client.push(`{"n":1}`)

			result := waitRelay(t, done)
			if result.First.Direction != ClientToUpstream || result.First.Kind != RelayPeerClosed {
				t.Errorf("unexpected result: %v", result.First)
			}
			if !errors.Is(result.First, ErrChannelClosed) {
				t.Errorf("cause should wrap ErrChannelClosed: %v", result.First.Cause)
			}
			ev := client.waitClosed(t)
			if ev.Code != CloseInternalError || ev.Reason != ReasonUpstreamClosed {
				t.Errorf("client close = %+v, want 1011 %q", ev, ReasonUpstreamClosed)
			}
			upstream.waitClosed(t)
		})
	}
}

func TestEngine_ClosedClientEndsLoop(t *testing.T) {
	client, upstream := newMemChannel(), newMemChannel()
	client.setSendErr(func([]byte) error { return ErrChannelClosed })

	done := startRelay(t, NewEngine(), client, upstream)
	upstream.push(`{"serverContent":{}}`)

	result := waitRelay(t, done)
	if result.First.Direction != UpstreamToClient || result.First.Kind != RelayPeerClosed {
		t.Errorf("unexpected result: %v", result.First)
	}
	if ev := upstream.waitClosed(t); ev.Code != CloseNormal {
		t.Errorf("upstream close code = %d, want %d", ev.Code, CloseNormal)
	}
	client.waitClosed(t)
}

func TestEngine_InvalidUTF8FromClient(t *testing.T) {
	client, upstream := newMemChannel(), newMemChannel()
	done := startRelay(t, NewEngine(), client, upstream)

	client.push("{\"s\":\"a\xffb\"}")

	result := waitRelay(t, done)
	if !errors.Is(result.First, ErrInvalidFormat) {
		t.Fatalf("expected invalid format, got %v", result.First)
	}
	ev := client.waitClosed(t)
	if ev.Code != ClosePolicyViolation || ev.Reason != ReasonInvalidJSON {
		t.Errorf("client close = %+v, want 1008 %q", ev, ReasonInvalidJSON)
	}
	upstream.expectNothingSent(t)
}

func TestEngine_ContextCancel(t *testing.T) {
	client, upstream := newMemChannel(), newMemChannel()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan RelayResult, 1)
	go func() { done <- NewEngine().Relay(ctx, client, upstream) }()

	cancel()
	result := waitRelay(t, done)
	if !errors.Is(result.First.Cause, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", result.First.Cause)
	}
	client.waitClosed(t)
	upstream.waitClosed(t)
}

func TestDestinationClose(t *testing.T) {
	tests := []struct {
		name   string
		dir    Direction
		result *RelayError
		want   CloseEvent
	}{
		{
			name:   "client leg ended",
			dir:    ClientToUpstream,
			result: &RelayError{Kind: RelayPeerClosed, Cause: &PeerCloseError{Code: 1006}},
			want:   CloseEvent{Code: CloseNormal},
		},
		{
			name:   "upstream normal close",
			dir:    UpstreamToClient,
			result: &RelayError{Kind: RelayPeerClosed, Cause: &PeerCloseError{Code: CloseNormal}},
			want:   CloseEvent{Code: CloseNormal},
		},
		{
			name:   "upstream dropped",
			dir:    UpstreamToClient,
			result: &RelayError{Kind: RelayPeerClosed, Cause: &PeerCloseError{Code: 1006}},
			want:   CloseEvent{Code: CloseInternalError, Reason: ReasonUpstreamClosed},
		},
		{
			name:   "local teardown",
			dir:    UpstreamToClient,
			result: &RelayError{Kind: RelayPeerClosed, Cause: ErrChannelClosed},
			want:   CloseEvent{Code: CloseNormal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := destinationClose(tt.dir, tt.result); got != tt.want {
				t.Errorf("destinationClose() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSourceClose(t *testing.T) {
	writeFailed := fmt.Errorf("%w: %w", errDestinationWrite, ErrChannelClosed)

	tests := []struct {
		name   string
		dir    Direction
		result *RelayError
		want   CloseEvent
	}{
		{
			name:   "client closed",
			dir:    ClientToUpstream,
			result: &RelayError{Kind: RelayPeerClosed, Cause: &PeerCloseError{Code: CloseNormal}},
			want:   CloseEvent{Code: CloseNormal},
		},
		{
			name:   "upstream write failed",
			dir:    ClientToUpstream,
			result: &RelayError{Kind: RelayPeerClosed, Cause: writeFailed},
			want:   CloseEvent{Code: CloseInternalError, Reason: ReasonUpstreamClosed},
		},
		{
			name:   "cancelled",
			dir:    ClientToUpstream,
			result: &RelayError{Kind: RelayPeerClosed, Cause: context.Canceled},
			want:   CloseEvent{Code: CloseNormal},
		},
		{
			name:   "client write failed",
			dir:    UpstreamToClient,
			result: &RelayError{Kind: RelayPeerClosed, Cause: writeFailed},
			want:   CloseEvent{Code: CloseNormal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sourceClose(tt.dir, tt.result); got != tt.want {
				t.Errorf("sourceClose() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
