package audit

import (
	"context"
	"sync"

	"kabaleid/pkg/domain"
)

// Store persists verification log rows. Append joins the enclosing approval
// transaction where one exists.
type Store interface {
	Append(ctx context.Context, log VerificationLog) error
	ListByApplication(ctx context.Context, applicationID domain.ApplicationID) ([]VerificationLog, error)
}

// InMemoryStore keeps logs in an append-only slice.
type InMemoryStore struct {
	mu   sync.RWMutex
	logs []VerificationLog
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, log VerificationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return nil
}

func (s *InMemoryStore) ListByApplication(_ context.Context, applicationID domain.ApplicationID) ([]VerificationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []VerificationLog
	for _, log := range s.logs {
		if log.ApplicationID == applicationID {
			out = append(out, log)
		}
	}
	return out, nil
}
