package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kabaleid/internal/application"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
	txcontext "kabaleid/pkg/platform/tx"
)

// PostgresStore persists applications. Writes inside the review flow join
// the transaction placed in context by the tx runner.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const applicationColumns = `id, citizen_id, kabale_id, status, submitted_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, app application.Application) error {
	query := `
		INSERT INTO id_applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(app.ID),
		uuid.UUID(app.CitizenID),
		uuid.UUID(app.KabaleID),
		string(app.Status),
		app.SubmittedAt,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, app application.Application) error {
	query := `
		UPDATE id_applications
		SET kabale_id = $2, status = $3, submitted_at = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(app.ID),
		uuid.UUID(app.KabaleID),
		string(app.Status),
		app.SubmittedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ApplicationID) (application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM id_applications WHERE id = $1`
	row := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id))
	return scanApplication(row)
}

// FindByIDForUpdate locks the application row (FOR UPDATE) so a concurrent
// review transaction blocks until this one commits, then observes the final
// status instead of failing serialization.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.ApplicationID) (application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM id_applications WHERE id = $1 FOR UPDATE`
	row := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id))
	return scanApplication(row)
}

func (s *PostgresStore) ListByCitizen(ctx context.Context, citizenID domain.CitizenID) ([]application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM id_applications WHERE citizen_id = $1 ORDER BY created_at`
	return s.queryApplications(ctx, query, uuid.UUID(citizenID))
}

func (s *PostgresStore) ListByKabale(ctx context.Context, kabaleID domain.KabaleID) ([]application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM id_applications WHERE kabale_id = $1 ORDER BY created_at`
	return s.queryApplications(ctx, query, uuid.UUID(kabaleID))
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM id_applications ORDER BY created_at`
	return s.queryApplications(ctx, query)
}

func (s *PostgresStore) queryApplications(ctx context.Context, query string, args ...any) ([]application.Application, error) {
	rows, err := txcontext.Resolve(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var out []application.Application
	for rows.Next() {
		app, err := scanApplicationRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return out, nil
}

func scanApplication(row *sql.Row) (application.Application, error) {
	var (
		app       application.Application
		rawID     uuid.UUID
		rawCit    uuid.UUID
		rawKabale uuid.UUID
		rawStatus string
	)
	err := row.Scan(&rawID, &rawCit, &rawKabale, &rawStatus, &app.SubmittedAt, &app.CreatedAt, &app.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return application.Application{}, sentinel.ErrNotFound
	}
	if err != nil {
		return application.Application{}, fmt.Errorf("scan application: %w", err)
	}
	app.ID = domain.ApplicationID(rawID)
	app.CitizenID = domain.CitizenID(rawCit)
	app.KabaleID = domain.KabaleID(rawKabale)
	app.Status = application.Status(rawStatus)
	return app, nil
}

func scanApplicationRows(rows *sql.Rows) (application.Application, error) {
	var (
		app       application.Application
		rawID     uuid.UUID
		rawCit    uuid.UUID
		rawKabale uuid.UUID
		rawStatus string
	)
	err := rows.Scan(&rawID, &rawCit, &rawKabale, &rawStatus, &app.SubmittedAt, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return application.Application{}, fmt.Errorf("scan application: %w", err)
	}
	app.ID = domain.ApplicationID(rawID)
	app.CitizenID = domain.CitizenID(rawCit)
	app.KabaleID = domain.KabaleID(rawKabale)
	app.Status = application.Status(rawStatus)
	return app, nil
}
