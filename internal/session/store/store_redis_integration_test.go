//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kabaleid/internal/session"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
	"kabaleid/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite

	ctx   context.Context
	rc    *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.rc = containers.NewRedisContainer(s.T())
	s.store = NewRedis(s.rc.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.rc.FlushAll(s.ctx))
}

func (s *RedisStoreSuite) newSession(userID domain.UserID, ttl time.Duration) session.Session {
	token, err := session.NewToken()
	s.Require().NoError(err)
	now := time.Now().UTC().Truncate(time.Millisecond)
	return session.Session{
		Token:     token,
		UserID:    userID,
		Device:    "Firefox on Linux",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *RedisStoreSuite) TestSaveAndFind() {
	sess := s.newSession(domain.NewUserID(), time.Hour)
	s.Require().NoError(s.store.Save(s.ctx, sess))

	got, err := s.store.FindByToken(s.ctx, sess.Token)
	s.Require().NoError(err)
	s.Equal(sess.Token, got.Token)
	s.Equal(sess.UserID, got.UserID)
	s.Equal(sess.Device, got.Device)
	s.WithinDuration(sess.ExpiresAt, got.ExpiresAt, time.Second)
}

func (s *RedisStoreSuite) TestFindMissingToken() {
	_, err := s.store.FindByToken(s.ctx, "no-such-token")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDeleteIsIdempotent() {
	sess := s.newSession(domain.NewUserID(), time.Hour)
	s.Require().NoError(s.store.Save(s.ctx, sess))

	s.Require().NoError(s.store.Delete(s.ctx, sess.Token))
	s.Require().NoError(s.store.Delete(s.ctx, sess.Token))

	_, err := s.store.FindByToken(s.ctx, sess.Token)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDeleteByUserRemovesAllSessions() {
	userID := domain.NewUserID()
	first := s.newSession(userID, time.Hour)
	second := s.newSession(userID, time.Hour)
	other := s.newSession(domain.NewUserID(), time.Hour)
	for _, sess := range []session.Session{first, second, other} {
		s.Require().NoError(s.store.Save(s.ctx, sess))
	}

	s.Require().NoError(s.store.DeleteByUser(s.ctx, userID))

	_, err := s.store.FindByToken(s.ctx, first.Token)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByToken(s.ctx, second.Token)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	got, err := s.store.FindByToken(s.ctx, other.Token)
	s.Require().NoError(err)
	s.Equal(other.Token, got.Token)
}

func (s *RedisStoreSuite) TestExpiredSessionIsEvicted() {
	sess := s.newSession(domain.NewUserID(), time.Second)
	s.Require().NoError(s.store.Save(s.ctx, sess))

	time.Sleep(1500 * time.Millisecond)

	_, err := s.store.FindByToken(s.ctx, sess.Token)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
