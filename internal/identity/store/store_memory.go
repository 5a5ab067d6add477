package store

import (
	"context"
	"strings"
	"sync"

	"kabaleid/internal/identity/models"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
)

// InMemoryStore keeps the identity records in maps. It backs unit tests and
// local development; it intentionally favors clarity over performance.
type InMemoryStore struct {
	mu            sync.RWMutex
	users         map[domain.UserID]models.User
	citizens      map[domain.CitizenID]models.CitizenProfile
	citizenByUser map[domain.UserID]domain.CitizenID
	adminByUser   map[domain.UserID]models.KabaleAdminProfile
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		users:         make(map[domain.UserID]models.User),
		citizens:      make(map[domain.CitizenID]models.CitizenProfile),
		citizenByUser: make(map[domain.UserID]domain.CitizenID),
		adminByUser:   make(map[domain.UserID]models.KabaleAdminProfile),
	}
}

func (s *InMemoryStore) CreateUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if user.Email != "" && strings.EqualFold(existing.Email, user.Email) {
			return sentinel.ErrConflict
		}
		if user.Phone != "" && existing.Phone == user.Phone {
			return sentinel.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *InMemoryStore) UpdateUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *InMemoryStore) FindUserByID(_ context.Context, id domain.UserID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return models.User{}, sentinel.ErrNotFound
}

// FindUserByLogin matches the identifier against email (case-insensitive) or
// phone (exact).
func (s *InMemoryStore) FindUserByLogin(_ context.Context, identifier string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email != "" && strings.EqualFold(user.Email, identifier) {
			return user, nil
		}
		if user.Phone != "" && user.Phone == identifier {
			return user, nil
		}
	}
	return models.User{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) CreateCitizenProfile(_ context.Context, profile models.CitizenProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.citizenByUser[profile.UserID]; ok {
		return sentinel.ErrConflict
	}
	s.citizens[profile.ID] = profile
	s.citizenByUser[profile.UserID] = profile.ID
	return nil
}

func (s *InMemoryStore) UpdateCitizenProfile(_ context.Context, profile models.CitizenProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.citizens[profile.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.citizens[profile.ID] = profile
	return nil
}

func (s *InMemoryStore) FindCitizenProfileByID(_ context.Context, id domain.CitizenID) (models.CitizenProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if profile, ok := s.citizens[id]; ok {
		return profile, nil
	}
	return models.CitizenProfile{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) CreateKabaleAdminProfile(_ context.Context, profile models.KabaleAdminProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adminByUser[profile.UserID]; ok {
		return sentinel.ErrConflict
	}
	s.adminByUser[profile.UserID] = profile
	return nil
}

// FindAccountByUserID loads the user plus whichever role profile exists.
func (s *InMemoryStore) FindAccountByUserID(_ context.Context, id domain.UserID) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.Account{}, sentinel.ErrNotFound
	}
	account := models.Account{User: user}
	if citizenID, ok := s.citizenByUser[id]; ok {
		profile := s.citizens[citizenID]
		account.Citizen = &profile
	}
	if admin, ok := s.adminByUser[id]; ok {
		account.KabaleAdmin = &admin
	}
	return account, nil
}
