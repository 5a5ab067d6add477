package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"kabaleid/internal/platform/metrics"
	"kabaleid/internal/session"
	"kabaleid/internal/session/store"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
	"kabaleid/pkg/requestcontext"
)

type SessionServiceSuite struct {
	suite.Suite
	svc *session.Service
	m   *metrics.Metrics
}

func (s *SessionServiceSuite) SetupTest() {
	s.m = metrics.NewForTest()
	s.svc = session.NewService(store.NewInMemory(), session.DefaultTTL, s.m)
}

func TestSessionServiceSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceSuite))
}

func (s *SessionServiceSuite) TestTokenIsHighEntropyHex() {
	sess, err := s.svc.Create(context.Background(), domain.NewUserID())
	s.Require().NoError(err)
	s.Len(sess.Token, 64) // 32 random bytes, hex-encoded

	other, err := s.svc.Create(context.Background(), domain.NewUserID())
	s.Require().NoError(err)
	s.NotEqual(sess.Token, other.Token)
}

func (s *SessionServiceSuite) TestCreateCountsSessions() {
	s.Zero(testutil.ToFloat64(s.m.SessionsCreated))

	_, err := s.svc.Create(context.Background(), domain.NewUserID())
	s.Require().NoError(err)
	_, err = s.svc.Create(context.Background(), domain.NewUserID())
	s.Require().NoError(err)

	s.Equal(float64(2), testutil.ToFloat64(s.m.SessionsCreated))
}

func (s *SessionServiceSuite) TestValidImmediatelyAfterCreate() {
	userID := domain.NewUserID()
	created, err := s.svc.Create(context.Background(), userID)
	s.Require().NoError(err)

	got, err := s.svc.Get(context.Background(), created.Token)
	s.Require().NoError(err)
	s.Equal(userID, got.UserID)
}

func (s *SessionServiceSuite) TestExpiryIsFixedAtCreation() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	sess, err := s.svc.Create(ctx, domain.NewUserID())
	s.Require().NoError(err)
	s.Equal(now.Add(7*24*time.Hour), sess.ExpiresAt)
}

func (s *SessionServiceSuite) TestInvalidAfterDelete() {
	sess, err := s.svc.Create(context.Background(), domain.NewUserID())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(context.Background(), sess.Token))

	_, err = s.svc.Get(context.Background(), sess.Token)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SessionServiceSuite) TestDeleteIsIdempotent() {
	s.NoError(s.svc.Delete(context.Background(), "never-issued"))
}

func (s *SessionServiceSuite) TestLazyExpiryRemovesRow() {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sess, err := s.svc.Create(requestcontext.WithTime(context.Background(), issued), domain.NewUserID())
	s.Require().NoError(err)

	// One second past expiry: lookup reports not found and removes the row.
	after := requestcontext.WithTime(context.Background(), issued.Add(7*24*time.Hour+time.Second))
	_, err = s.svc.Get(after, sess.Token)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// Even at a pre-expiry clock the row is gone.
	before := requestcontext.WithTime(context.Background(), issued)
	_, err = s.svc.Get(before, sess.Token)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SessionServiceSuite) TestConcurrentExpiredLookupsAreIdempotent() {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sess, err := s.svc.Create(requestcontext.WithTime(context.Background(), issued), domain.NewUserID())
	s.Require().NoError(err)

	after := requestcontext.WithTime(context.Background(), issued.Add(30*24*time.Hour))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.svc.Get(after, sess.Token)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		s.ErrorIs(err, sentinel.ErrNotFound)
	}
}

func (s *SessionServiceSuite) TestDeleteUserSessionsRevokesAll() {
	userID := domain.NewUserID()
	first, err := s.svc.Create(context.Background(), userID)
	s.Require().NoError(err)
	second, err := s.svc.Create(context.Background(), userID)
	s.Require().NoError(err)

	other, err := s.svc.Create(context.Background(), domain.NewUserID())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeleteUserSessions(context.Background(), userID))

	_, err = s.svc.Get(context.Background(), first.Token)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.svc.Get(context.Background(), second.Token)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.svc.Get(context.Background(), other.Token)
	s.NoError(err)
}

func TestDeviceLabel(t *testing.T) {
	const firefox = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"desktop browser", firefox, "Firefox on Linux"},
		{"empty agent", "", "unknown device"},
		{"garbage agent", "definitely-not-a-user-agent", "unknown device"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := session.DeviceLabel(tt.ua); got != tt.want {
				t.Errorf("DeviceLabel(%q) = %q, want %q", tt.ua, got, tt.want)
			}
		})
	}
}
