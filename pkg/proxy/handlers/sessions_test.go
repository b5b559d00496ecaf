package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/proxy"
)

type staticSessions []proxy.SessionInfo

func (s staticSessions) Snapshot() []proxy.SessionInfo { return s }

func TestSessionsHandler(t *testing.T) {
	sessions := staticSessions{
		{ID: "a", State: "relaying", RemoteAddr: "10.0.0.1:5000", CreatedAt: time.Now(), UpstreamConnected: true},
		{ID: "b", State: "authenticating", RemoteAddr: "10.0.0.2:5000", CreatedAt: time.Now()},
	}
	handler := NewSessionsHandler(sessions)

	t.Run("lists sessions", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/sessions", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var body sessionsResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Count != 2 || len(body.Sessions) != 2 {
			t.Errorf("count = %d, sessions = %d", body.Count, len(body.Sessions))
		}
		if body.Sessions[0].State != "relaying" || !body.Sessions[0].UpstreamConnected {
			t.Errorf("unexpected first session: %+v", body.Sessions[0])
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/debug/sessions", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", w.Code)
		}
	})
}
