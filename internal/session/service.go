package session

import (
	"context"
	"errors"
	"time"

	"kabaleid/internal/platform/metrics"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
	"kabaleid/pkg/requestcontext"
)

// DefaultTTL is the fixed session lifetime. There is no sliding expiry.
const DefaultTTL = 7 * 24 * time.Hour

// Store persists session rows. Delete is idempotent: removing an absent token
// is not an error, so concurrent lazy-expiry deletes cannot fail each other.
type Store interface {
	Save(ctx context.Context, session Session) error
	FindByToken(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID domain.UserID) error
}

// Service issues, resolves and revokes sessions.
type Service struct {
	store   Store
	ttl     time.Duration
	metrics *metrics.Metrics
}

func NewService(store Store, ttl time.Duration, m *metrics.Metrics) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, ttl: ttl, metrics: m}
}

// Create issues a new session for the user. The device label comes from the
// request's User-Agent when middleware recorded one.
func (s *Service) Create(ctx context.Context, userID domain.UserID) (Session, error) {
	token, err := NewToken()
	if err != nil {
		return Session{}, err
	}
	now := requestcontext.Now(ctx)
	session := Session{
		Token:     token,
		UserID:    userID,
		Device:    DeviceLabel(requestcontext.UserAgent(ctx)),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, session); err != nil {
		return Session{}, err
	}
	if s.metrics != nil {
		s.metrics.SessionsCreated.Inc()
	}
	return session, nil
}

// Get resolves a token. An expired session is deleted on sight and reported
// as not found; no background sweep is needed for correctness, only for
// storage hygiene.
func (s *Service) Get(ctx context.Context, token string) (Session, error) {
	session, err := s.store.FindByToken(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if session.Expired(requestcontext.Now(ctx)) {
		if err := s.store.Delete(ctx, token); err != nil {
			return Session{}, err
		}
		return Session{}, sentinel.ErrNotFound
	}
	return session, nil
}

// Delete revokes one session. Unknown tokens are a no-op.
func (s *Service) Delete(ctx context.Context, token string) error {
	err := s.store.Delete(ctx, token)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	return err
}

// DeleteUserSessions revokes every session the user holds.
func (s *Service) DeleteUserSessions(ctx context.Context, userID domain.UserID) error {
	return s.store.DeleteByUser(ctx, userID)
}
