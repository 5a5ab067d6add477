package store

import (
	"context"
	"sort"
	"sync"

	"kabaleid/internal/application"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
)

// InMemoryStore keeps applications in a map, for tests and local runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	apps map[domain.ApplicationID]application.Application
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{apps: make(map[domain.ApplicationID]application.Application)}
}

func (s *InMemoryStore) Create(_ context.Context, app application.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; ok {
		return sentinel.ErrConflict
	}
	s.apps[app.ID] = app
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, app application.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.apps[app.ID] = app
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.ApplicationID) (application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if app, ok := s.apps[id]; ok {
		return app, nil
	}
	return application.Application{}, sentinel.ErrNotFound
}

// FindByIDForUpdate reads the current row. The sharded per-citizen mutex in
// the tx runner provides the serialization a row lock gives postgres.
func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, id domain.ApplicationID) (application.Application, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemoryStore) ListByCitizen(_ context.Context, citizenID domain.CitizenID) ([]application.Application, error) {
	return s.list(func(app application.Application) bool { return app.CitizenID == citizenID }), nil
}

func (s *InMemoryStore) ListByKabale(_ context.Context, kabaleID domain.KabaleID) ([]application.Application, error) {
	return s.list(func(app application.Application) bool { return app.KabaleID == kabaleID }), nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]application.Application, error) {
	return s.list(func(application.Application) bool { return true }), nil
}

func (s *InMemoryStore) list(keep func(application.Application) bool) []application.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []application.Application
	for _, app := range s.apps {
		if keep(app) {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
