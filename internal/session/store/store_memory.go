package store

import (
	"context"
	"sync"

	"kabaleid/internal/session"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in a map keyed by token.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]session.Session)}
}

func (s *InMemoryStore) Save(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

func (s *InMemoryStore) FindByToken(_ context.Context, token string) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[token]; ok {
		return sess, nil
	}
	return session.Session{}, sentinel.ErrNotFound
}

// Delete removes a session if present. Deleting an absent token succeeds.
func (s *InMemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}
