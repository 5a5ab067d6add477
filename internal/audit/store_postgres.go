package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kabaleid/pkg/domain"
	txcontext "kabaleid/pkg/platform/tx"
)

// PostgresStore writes verification logs to the verification_logs table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, log VerificationLog) error {
	query := `
		INSERT INTO verification_logs (id, application_id, verified_by, result, notes, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		log.ID,
		uuid.UUID(log.ApplicationID),
		uuid.UUID(log.VerifiedBy),
		string(log.Result),
		log.Notes,
		log.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, applicationID domain.ApplicationID) ([]VerificationLog, error) {
	query := `
		SELECT id, application_id, verified_by, result, notes, verified_at
		FROM verification_logs
		WHERE application_id = $1
		ORDER BY verified_at
	`
	rows, err := txcontext.Resolve(ctx, s.db).QueryContext(ctx, query, uuid.UUID(applicationID))
	if err != nil {
		return nil, fmt.Errorf("query verification logs: %w", err)
	}
	defer rows.Close()

	var out []VerificationLog
	for rows.Next() {
		var (
			log       VerificationLog
			rawApp    uuid.UUID
			rawUser   uuid.UUID
			rawResult string
		)
		if err := rows.Scan(&log.ID, &rawApp, &rawUser, &rawResult, &log.Notes, &log.VerifiedAt); err != nil {
			return nil, fmt.Errorf("scan verification log: %w", err)
		}
		log.ApplicationID = domain.ApplicationID(rawApp)
		log.VerifiedBy = domain.UserID(rawUser)
		log.Result = Result(rawResult)
		out = append(out, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification logs: %w", err)
	}
	return out, nil
}
