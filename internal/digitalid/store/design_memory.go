package store

import (
	"context"
	"sync"

	"kabaleid/internal/digitalid"
)

// InMemoryDesignStore holds the singleton design config behind a lock.
type InMemoryDesignStore struct {
	mu  sync.RWMutex
	cfg digitalid.DesignConfig
}

func NewInMemoryDesign(cfg digitalid.DesignConfig) *InMemoryDesignStore {
	return &InMemoryDesignStore{cfg: cfg}
}

func (s *InMemoryDesignStore) Get(_ context.Context) (digitalid.DesignConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, nil
}

func (s *InMemoryDesignStore) Put(_ context.Context, cfg digitalid.DesignConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return nil
}
