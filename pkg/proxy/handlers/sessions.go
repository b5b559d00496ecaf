package handlers

import (
	"net/http"
	"time"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/proxy"
)

// SessionLister exposes the live sessions. *proxy.Registry implements it.
type SessionLister interface {
	Snapshot() []proxy.SessionInfo
}

// SessionsHandler serves a JSON list of live sessions for debugging. Tokens
// are never part of the output.
type SessionsHandler struct {
	sessions SessionLister
}

// NewSessionsHandler creates a sessions handler.
func NewSessionsHandler(sessions SessionLister) *SessionsHandler {
	return &SessionsHandler{sessions: sessions}
}

type sessionsResponse struct {
	Count     int                 `json:"count"`
	Sessions  []proxy.SessionInfo `json:"sessions"`
	Timestamp int64               `json:"timestamp"`
}

// ServeHTTP implements http.Handler.
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessions := h.sessions.Snapshot()
	writeJSON(w, http.StatusOK, sessionsResponse{
		Count:     len(sessions),
		Sessions:  sessions,
		Timestamp: time.Now().Unix(),
	})
}
