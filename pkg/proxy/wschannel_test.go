package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsPair returns a server-side WebSocketChannel and the raw client
// connection talking to it.
func wsPair(t *testing.T) (*WebSocketChannel, *websocket.Conn) {
	t.Helper()

	serverSide := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serverSide <- conn
	}))
	t.Cleanup(srv.Close)

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { peer.Close() })

	select {
	case conn := <-serverSide:
		ch := NewWebSocketChannel(conn, 100*time.Millisecond)
		t.Cleanup(func() { ch.Close(CloseNormal, "") })
		return ch, peer
	case <-time.After(testWait):
		t.Fatal("server did not accept connection")
		return nil, nil
	}
}

func TestWebSocketChannel_SendReceive(t *testing.T) {
	ch, peer := wsPair(t)
	ctx := context.Background()

	if err := peer.WriteMessage(websocket.TextMessage, []byte(`{"q":"text"}`)); err != nil {
		t.Fatal(err)
	}
	if err := peer.WriteMessage(websocket.BinaryMessage, []byte(`{"q":"binary"}`)); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{`{"q":"text"}`, `{"q":"binary"}`} {
		got, err := ch.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if string(got) != want {
			t.Errorf("Receive() = %s, want %s", got, want)
		}
	}

	if err := ch.Send(ctx, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	typ, data, err := peer.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if typ != websocket.TextMessage || string(data) != `{"ok":true}` {
		t.Errorf("peer got type %d %s", typ, data)
	}
}

func TestWebSocketChannel_PeerClose(t *testing.T) {
	ch, peer := wsPair(t)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	if err := peer.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		t.Fatal(err)
	}

	_, err := ch.Receive(context.Background())
	var peerErr *PeerCloseError
	if !errors.As(err, &peerErr) {
		t.Fatalf("Receive() error = %v, want *PeerCloseError", err)
	}
	if peerErr.Code != CloseNormal || peerErr.Text != "done" || !peerErr.Normal() {
		t.Errorf("unexpected peer close: %+v", peerErr)
	}
}

func TestWebSocketChannel_PeerDrop(t *testing.T) {
	ch, peer := wsPair(t)
	peer.Close()

	_, err := ch.Receive(context.Background())
	var peerErr *PeerCloseError
	if !errors.As(err, &peerErr) {
		t.Fatalf("Receive() error = %v, want *PeerCloseError", err)
	}
	if peerErr.Normal() {
		t.Errorf("dropped connection reported as normal close: %+v", peerErr)
	}
}

func TestWebSocketChannel_ReceiveDeadline(t *testing.T) {
	ch, _ := wsPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := ch.Receive(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Receive() error = %v, want deadline exceeded", err)
	}
}

func TestWebSocketChannel_ReceiveCancel(t *testing.T) {
	ch, _ := wsPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := ch.Receive(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Receive() error = %v, want context.Canceled", err)
	}
}

func TestWebSocketChannel_Close(t *testing.T) {
	ch, peer := wsPair(t)

	if err := ch.Close(ClosePolicyViolation, ReasonInvalidJSON); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Second close is a no-op.
	_ = ch.Close(CloseNormal, "")

	_, _, err := peer.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("peer read error = %v, want close frame", err)
	}
	if closeErr.Code != ClosePolicyViolation || closeErr.Text != ReasonInvalidJSON {
		t.Errorf("peer saw close %d %q", closeErr.Code, closeErr.Text)
	}

	if err := ch.Send(context.Background(), []byte(`{}`)); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("Send() after close error = %v", err)
	}
	if _, err := ch.Receive(context.Background()); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("Receive() after close error = %v", err)
	}
}
