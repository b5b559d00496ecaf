package proxy

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the live sessions of the process. Sessions share no state
// through it; it exists for introspection and shutdown.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	drained  chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	drained := make(chan struct{})
	close(drained)
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		drained:  drained,
	}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) == 0 {
		r.drained = make(chan struct{})
	}
	r.sessions[s.ID] = s
}

// Remove unregisters a session.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return
	}
	delete(r.sessions, id)
	if len(r.sessions) == 0 {
		close(r.drained)
	}
}

// Get returns the session with the given ID.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns info for every live session, oldest first.
func (r *Registry) Snapshot() []SessionInfo {
	r.mu.RLock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(list))
	for _, s := range list {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// CloseAll shuts down every live session with the given close frame and
// returns how many were signalled.
func (r *Registry) CloseAll(code int, reason string) int {
	r.mu.RLock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.RUnlock()

	for _, s := range list {
		s.Shutdown(code, reason)
	}
	return len(list)
}

// Wait blocks until no sessions remain or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	for {
		r.mu.RLock()
		drained := r.drained
		empty := len(r.sessions) == 0
		r.mu.RUnlock()

		if empty {
			return nil
		}
		select {
		case <-drained:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
