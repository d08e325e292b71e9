package auth

import (
	"context"
	"sync"
	"time"
)

// InMemorySessionStore keeps refresh tokens in process memory. Sessions do
// not survive a restart.
type InMemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

// NewInMemorySessionStore returns an empty store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]Session), now: time.Now}
}

// Save records session and forgets the same user's expired sessions.
func (s *InMemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for token, existing := range s.sessions {
		if existing.UserID == session.UserID && !now.Before(existing.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
	s.sessions[session.RefreshToken] = session
	return nil
}

func (s *InMemorySessionStore) Find(_ context.Context, refreshToken string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[refreshToken]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Delete reports ErrSessionNotFound for unknown tokens.
func (s *InMemorySessionStore) Delete(_ context.Context, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[refreshToken]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, refreshToken)
	return nil
}

// Has reports whether a refresh token is stored.
func (s *InMemorySessionStore) Has(refreshToken string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[refreshToken]
	return ok
}

// WithNowFunc overrides the clock used for pruning.
func (s *InMemorySessionStore) WithNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
