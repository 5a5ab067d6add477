package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kabaleid/internal/identity/models"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
	txcontext "kabaleid/pkg/platform/tx"
)

// PostgresStore persists identity records in PostgreSQL. Writes join an
// enclosing transaction when one is present in context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateUser(ctx context.Context, user models.User) error {
	query := `
		INSERT INTO users (id, role, full_name, email, phone, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(user.ID),
		string(user.Role),
		user.FullName,
		nullable(user.Email),
		nullable(user.Phone),
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user models.User) error {
	query := `
		UPDATE users
		SET full_name = $2, email = $3, phone = $4, password_hash = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(user.ID),
		user.FullName,
		nullable(user.Email),
		nullable(user.Phone),
		user.PasswordHash,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const userColumns = `id, role, full_name, COALESCE(email, ''), COALESCE(phone, ''), password_hash, created_at, updated_at`

func (s *PostgresStore) FindUserByID(ctx context.Context, id domain.UserID) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	row := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id))
	return scanUser(row)
}

func (s *PostgresStore) FindUserByLogin(ctx context.Context, identifier string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) OR phone = $1`
	row := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query, identifier)
	return scanUser(row)
}

func scanUser(row *sql.Row) (models.User, error) {
	var (
		user    models.User
		rawID   uuid.UUID
		rawRole string
	)
	err := row.Scan(
		&rawID,
		&rawRole,
		&user.FullName,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.ID = domain.UserID(rawID)
	user.Role = models.Role(rawRole)
	return user, nil
}

func (s *PostgresStore) CreateCitizenProfile(ctx context.Context, profile models.CitizenProfile) error {
	query := `
		INSERT INTO citizen_profiles (id, user_id, date_of_birth, gender, phone, address, nationality, photo_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(profile.ID),
		uuid.UUID(profile.UserID),
		profile.DateOfBirth,
		profile.Gender,
		profile.Phone,
		profile.Address,
		profile.Nationality,
		profile.PhotoKey,
		profile.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert citizen profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCitizenProfile(ctx context.Context, profile models.CitizenProfile) error {
	query := `
		UPDATE citizen_profiles
		SET phone = $2, address = $3, photo_key = $4
		WHERE id = $1
	`
	res, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(profile.ID),
		profile.Phone,
		profile.Address,
		profile.PhotoKey,
	)
	if err != nil {
		return fmt.Errorf("update citizen profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update citizen profile rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindCitizenProfileByID(ctx context.Context, id domain.CitizenID) (models.CitizenProfile, error) {
	query := `
		SELECT id, user_id, date_of_birth, gender, phone, address, nationality, photo_key, created_at
		FROM citizen_profiles WHERE id = $1
	`
	row := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id))
	return scanCitizenProfile(row)
}

func scanCitizenProfile(row *sql.Row) (models.CitizenProfile, error) {
	var (
		profile   models.CitizenProfile
		rawID     uuid.UUID
		rawUserID uuid.UUID
	)
	err := row.Scan(
		&rawID,
		&rawUserID,
		&profile.DateOfBirth,
		&profile.Gender,
		&profile.Phone,
		&profile.Address,
		&profile.Nationality,
		&profile.PhotoKey,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CitizenProfile{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.CitizenProfile{}, fmt.Errorf("scan citizen profile: %w", err)
	}
	profile.ID = domain.CitizenID(rawID)
	profile.UserID = domain.UserID(rawUserID)
	return profile, nil
}

func (s *PostgresStore) CreateKabaleAdminProfile(ctx context.Context, profile models.KabaleAdminProfile) error {
	query := `INSERT INTO kabale_admin_profiles (user_id, kabale_id) VALUES ($1, $2)`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(profile.UserID),
		uuid.UUID(profile.KabaleID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert kabale admin profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAccountByUserID(ctx context.Context, id domain.UserID) (models.Account, error) {
	user, err := s.FindUserByID(ctx, id)
	if err != nil {
		return models.Account{}, err
	}
	account := models.Account{User: user}

	q := txcontext.Resolve(ctx, s.db)

	profileQuery := `
		SELECT id, user_id, date_of_birth, gender, phone, address, nationality, photo_key, created_at
		FROM citizen_profiles WHERE user_id = $1
	`
	profile, err := scanCitizenProfile(q.QueryRowContext(ctx, profileQuery, uuid.UUID(id)))
	switch {
	case err == nil:
		account.Citizen = &profile
	case !errors.Is(err, sentinel.ErrNotFound):
		return models.Account{}, err
	}

	var rawKabaleID uuid.UUID
	adminQuery := `SELECT kabale_id FROM kabale_admin_profiles WHERE user_id = $1`
	err = q.QueryRowContext(ctx, adminQuery, uuid.UUID(id)).Scan(&rawKabaleID)
	switch {
	case err == nil:
		account.KabaleAdmin = &models.KabaleAdminProfile{
			UserID:   id,
			KabaleID: domain.KabaleID(rawKabaleID),
		}
	case !errors.Is(err, sql.ErrNoRows):
		return models.Account{}, fmt.Errorf("scan kabale admin profile: %w", err)
	}

	return account, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation detects PostgreSQL unique_violation (23505) without
// binding the store to a specific driver error type.
func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var c coder
	if errors.As(err, &c) {
		return c.SQLState() == "23505"
	}
	return false
}
