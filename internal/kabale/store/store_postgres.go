package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kabaleid/internal/kabale"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
	txcontext "kabaleid/pkg/platform/tx"
)

// PostgresStore persists kabales in the kabales table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, k kabale.Kabale) error {
	query := `
		INSERT INTO kabales (id, name, code, address, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(k.ID), k.Name, k.Code, k.Address, k.Phone, k.Email, k.CreatedAt, k.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert kabale: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, k kabale.Kabale) error {
	query := `
		UPDATE kabales
		SET name = $2, address = $3, phone = $4, email = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(k.ID), k.Name, k.Address, k.Phone, k.Email, k.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update kabale: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update kabale rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const kabaleColumns = `id, name, code, address, phone, email, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.KabaleID) (kabale.Kabale, error) {
	query := `SELECT ` + kabaleColumns + ` FROM kabales WHERE id = $1`
	row := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id))

	var (
		k     kabale.Kabale
		rawID uuid.UUID
	)
	err := row.Scan(&rawID, &k.Name, &k.Code, &k.Address, &k.Phone, &k.Email, &k.CreatedAt, &k.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return kabale.Kabale{}, sentinel.ErrNotFound
	}
	if err != nil {
		return kabale.Kabale{}, fmt.Errorf("scan kabale: %w", err)
	}
	k.ID = domain.KabaleID(rawID)
	return k, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]kabale.Kabale, error) {
	query := `SELECT ` + kabaleColumns + ` FROM kabales ORDER BY name`
	rows, err := txcontext.Resolve(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query kabales: %w", err)
	}
	defer rows.Close()

	var out []kabale.Kabale
	for rows.Next() {
		var (
			k     kabale.Kabale
			rawID uuid.UUID
		)
		if err := rows.Scan(&rawID, &k.Name, &k.Code, &k.Address, &k.Phone, &k.Email, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan kabale: %w", err)
		}
		k.ID = domain.KabaleID(rawID)
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kabales: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var c coder
	if errors.As(err, &c) {
		return c.SQLState() == "23505"
	}
	return false
}
