// Package session tracks signed-in owners. Ending a session cancels its
// context, which stops any batch started under it.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"mockupstudio/internal/domain"
	"mockupstudio/internal/infra"
)

// Session is the authenticated context of one owner.
type Session struct {
	OwnerID   string
	StartedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// Context is cancelled when the session ends.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Active reports whether the session has not ended.
func (s *Session) Active() bool {
	return s != nil && s.ctx.Err() == nil
}

// Registry holds at most one live session per owner.
type Registry struct {
	mu       sync.Mutex
	parent   context.Context
	sessions map[string]*Session
	logger   infra.Logger
	now      func() time.Time
}

// NewRegistry creates a registry whose sessions derive from parent.
func NewRegistry(parent context.Context, logger infra.Logger) *Registry {
	return &Registry{
		parent:   parent,
		sessions: make(map[string]*Session),
		logger:   logger,
		now:      time.Now,
	}
}

// Begin returns the owner's live session, creating one if needed.
func (r *Registry) Begin(ownerID string) (*Session, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[ownerID]; ok && s.Active() {
		return s, nil
	}
	ctx, cancel := context.WithCancel(r.parent)
	s := &Session{OwnerID: ownerID, StartedAt: r.now(), ctx: ctx, cancel: cancel}
	r.sessions[ownerID] = s
	r.logger.Info().Str("owner_id", ownerID).Msg("session: started")
	return s, nil
}

// Get returns the owner's live session.
func (r *Registry) Get(ownerID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[ownerID]
	if !ok || !s.Active() {
		return nil, false
	}
	return s, true
}

// End cancels the owner's session. It reports whether one was live.
func (r *Registry) End(ownerID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[ownerID]
	delete(r.sessions, ownerID)
	r.mu.Unlock()
	if !ok {
		return false
	}
	live := s.Active()
	s.cancel()
	r.logger.Info().Str("owner_id", ownerID).Msg("session: ended")
	return live
}

// EndAll cancels every session.
func (r *Registry) EndAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.cancel()
	}
}
