package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"kabaleid/internal/kabale"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
)

// InMemoryStore keeps kabales in a map.
type InMemoryStore struct {
	mu      sync.RWMutex
	kabales map[domain.KabaleID]kabale.Kabale
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{kabales: make(map[domain.KabaleID]kabale.Kabale)}
}

func (s *InMemoryStore) Create(_ context.Context, k kabale.Kabale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.kabales {
		if strings.EqualFold(existing.Code, k.Code) {
			return sentinel.ErrConflict
		}
	}
	s.kabales[k.ID] = k
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, k kabale.Kabale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.kabales[k.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.kabales[k.ID] = k
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.KabaleID) (kabale.Kabale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k, ok := s.kabales[id]; ok {
		return k, nil
	}
	return kabale.Kabale{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]kabale.Kabale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]kabale.Kabale, 0, len(s.kabales))
	for _, k := range s.kabales {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
