package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kabaleid/internal/session"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
	txcontext "kabaleid/pkg/platform/tx"
)

// PostgresStore persists sessions in the sessions table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, sess session.Session) error {
	query := `
		INSERT INTO sessions (token, user_id, device, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		sess.Token,
		uuid.UUID(sess.UserID),
		sess.Device,
		sess.CreatedAt,
		sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByToken(ctx context.Context, token string) (session.Session, error) {
	query := `SELECT token, user_id, device, created_at, expires_at FROM sessions WHERE token = $1`
	var (
		sess      session.Session
		rawUserID uuid.UUID
	)
	err := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query, token).Scan(
		&sess.Token,
		&rawUserID,
		&sess.Device,
		&sess.CreatedAt,
		&sess.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, sentinel.ErrNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("scan session: %w", err)
	}
	sess.UserID = domain.UserID(rawUserID)
	return sess, nil
}

// Delete is delete-if-exists: zero rows affected is still success, which keeps
// concurrent lazy-expiry deletes idempotent.
func (s *PostgresStore) Delete(ctx context.Context, token string) error {
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID domain.UserID) error {
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}
