package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kabaleid/internal/digitalid"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
	txcontext "kabaleid/pkg/platform/tx"
)

// PostgresStore persists digital IDs. All writes inside the approval flow
// join the serializable transaction placed in context by the tx runner.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const digitalIDColumns = `id, application_id, citizen_id, kabale_id, status, issued_at, expires_at`

func (s *PostgresStore) Create(ctx context.Context, d digitalid.DigitalID) error {
	query := `
		INSERT INTO digital_ids (` + digitalIDColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(d.ID),
		uuid.UUID(d.ApplicationID),
		uuid.UUID(d.CitizenID),
		uuid.UUID(d.KabaleID),
		string(d.Status),
		d.IssuedAt,
		d.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert digital id: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.DigitalIDID) (digitalid.DigitalID, error) {
	query := `SELECT ` + digitalIDColumns + ` FROM digital_ids WHERE id = $1`
	return scanDigitalID(txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id)))
}

// FindActiveByCitizen locks the matching row (FOR UPDATE) so the approval
// transaction's re-check serializes against concurrent approvals.
func (s *PostgresStore) FindActiveByCitizen(ctx context.Context, citizenID domain.CitizenID) (digitalid.DigitalID, error) {
	query := `
		SELECT ` + digitalIDColumns + `
		FROM digital_ids
		WHERE citizen_id = $1 AND status = 'ACTIVE'
		FOR UPDATE
	`
	return scanDigitalID(txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(citizenID)))
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id domain.DigitalIDID, status digitalid.Status) error {
	res, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx,
		`UPDATE digital_ids SET status = $2 WHERE id = $1`, uuid.UUID(id), string(status))
	if err != nil {
		return fmt.Errorf("update digital id status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update digital id rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountActiveByCitizen(ctx context.Context, citizenID domain.CitizenID) (int, error) {
	var count int
	err := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM digital_ids WHERE citizen_id = $1 AND status = 'ACTIVE'`,
		uuid.UUID(citizenID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active digital ids: %w", err)
	}
	return count, nil
}

func scanDigitalID(row *sql.Row) (digitalid.DigitalID, error) {
	var (
		d         digitalid.DigitalID
		rawID     uuid.UUID
		rawApp    uuid.UUID
		rawCit    uuid.UUID
		rawKabale uuid.UUID
		rawStatus string
	)
	err := row.Scan(&rawID, &rawApp, &rawCit, &rawKabale, &rawStatus, &d.IssuedAt, &d.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return digitalid.DigitalID{}, sentinel.ErrNotFound
	}
	if err != nil {
		return digitalid.DigitalID{}, fmt.Errorf("scan digital id: %w", err)
	}
	d.ID = domain.DigitalIDID(rawID)
	d.ApplicationID = domain.ApplicationID(rawApp)
	d.CitizenID = domain.CitizenID(rawCit)
	d.KabaleID = domain.KabaleID(rawKabale)
	d.Status = digitalid.Status(rawStatus)
	return d, nil
}
