package proxy

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUpstreamAlreadySet is returned when a second upstream is attached.
	ErrUpstreamAlreadySet = errors.New("upstream already established for session")

	// ErrSessionShutdown is returned when an upstream is attached after the
	// session was shut down.
	ErrSessionShutdown = errors.New("session is shutting down")
)

// Session is one client connection from accept to teardown. It is owned by
// the Supervisor. The bearer token is held only for the upstream dial and is
// never exposed through Info.
type Session struct {
	ID         uuid.UUID
	RemoteAddr string
	CreatedAt  time.Time

	client Channel

	mu       sync.Mutex
	upstream Channel
	token    string
	state    State
	shutdown bool
}

// SessionInfo is a point-in-time view of a session.
type SessionInfo struct {
	ID                string    `json:"id"`
	State             string    `json:"state"`
	RemoteAddr        string    `json:"remote_addr"`
	CreatedAt         time.Time `json:"created_at"`
	DurationSeconds   float64   `json:"duration_seconds"`
	UpstreamConnected bool      `json:"upstream_connected"`
}

func newSession(client Channel, remoteAddr string) *Session {
	return &Session{
		ID:         uuid.New(),
		RemoteAddr: remoteAddr,
		CreatedAt:  time.Now(),
		client:     client,
		state:      StateAccepted,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition moves the session to the given state and returns the previous one.
func (s *Session) transition(to State) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.state
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	s.state = to
	return from, nil
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// setUpstream attaches the upstream leg. It succeeds at most once.
func (s *Session) setUpstream(ch Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return ErrSessionShutdown
	}
	if s.upstream != nil {
		return ErrUpstreamAlreadySet
	}
	s.upstream = ch
	return nil
}

func (s *Session) upstreamChannel() Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upstream
}

// ShuttingDown reports whether Shutdown was called.
func (s *Session) ShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// Shutdown closes both legs with the given close frame. The supervisor
// running the session notices the closed channels and tears down.
func (s *Session) Shutdown(code int, reason string) {
	s.mu.Lock()
	s.shutdown = true
	upstream := s.upstream
	s.mu.Unlock()

	_ = s.client.Close(code, reason)
	if upstream != nil {
		_ = upstream.Close(code, reason)
	}
}

// closeAll issues a close request to every leg that exists. Channel.Close is
// idempotent, so legs closed earlier keep their original close frame.
func (s *Session) closeAll(ev CloseEvent) {
	_ = s.client.Close(ev.Code, ev.Reason)
	if upstream := s.upstreamChannel(); upstream != nil {
		_ = upstream.Close(ev.Code, ev.Reason)
	}
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// Info returns a snapshot of the session without the token.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:                s.ID.String(),
		State:             s.state.String(),
		RemoteAddr:        s.RemoteAddr,
		CreatedAt:         s.CreatedAt,
		DurationSeconds:   time.Since(s.CreatedAt).Seconds(),
		UpstreamConnected: s.upstream != nil,
	}
}
