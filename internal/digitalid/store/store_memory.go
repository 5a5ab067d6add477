package store

import (
	"context"
	"sync"

	"kabaleid/internal/digitalid"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
)

// InMemoryStore keeps digital IDs in maps. The enclosing transaction runner
// serializes approval writes, so this store only needs its own lock for
// point operations.
type InMemoryStore struct {
	mu  sync.RWMutex
	ids map[domain.DigitalIDID]digitalid.DigitalID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{ids: make(map[domain.DigitalIDID]digitalid.DigitalID)}
}

func (s *InMemoryStore) Create(_ context.Context, d digitalid.DigitalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[d.ID]; ok {
		return sentinel.ErrConflict
	}
	s.ids[d.ID] = d
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.DigitalIDID) (digitalid.DigitalID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.ids[id]; ok {
		return d, nil
	}
	return digitalid.DigitalID{}, sentinel.ErrNotFound
}

// FindActiveByCitizen returns the citizen's ACTIVE digital ID, if any.
func (s *InMemoryStore) FindActiveByCitizen(_ context.Context, citizenID domain.CitizenID) (digitalid.DigitalID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.ids {
		if d.CitizenID == citizenID && d.Status == digitalid.StatusActive {
			return d, nil
		}
	}
	return digitalid.DigitalID{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id domain.DigitalIDID, status digitalid.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.ids[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.Status = status
	s.ids[id] = d
	return nil
}

// CountActiveByCitizen supports the invariant check in tests.
func (s *InMemoryStore) CountActiveByCitizen(_ context.Context, citizenID domain.CitizenID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, d := range s.ids {
		if d.CitizenID == citizenID && d.Status == digitalid.StatusActive {
			count++
		}
	}
	return count, nil
}
