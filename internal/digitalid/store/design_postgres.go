package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kabaleid/internal/digitalid"
	txcontext "kabaleid/pkg/platform/tx"
)

// PostgresDesignStore keeps the design config as a single row (id = 1).
// Get falls back to the defaults when the row has never been written.
type PostgresDesignStore struct {
	db *sql.DB
}

func NewPostgresDesign(db *sql.DB) *PostgresDesignStore {
	return &PostgresDesignStore{db: db}
}

func (s *PostgresDesignStore) Get(ctx context.Context) (digitalid.DesignConfig, error) {
	query := `
		SELECT header_color, accent_color, text_color, font_family,
		       header_text, sub_header_text, expiry_duration_years
		FROM id_design_config WHERE id = 1
	`
	var cfg digitalid.DesignConfig
	err := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query).Scan(
		&cfg.HeaderColor,
		&cfg.AccentColor,
		&cfg.TextColor,
		&cfg.FontFamily,
		&cfg.HeaderText,
		&cfg.SubHeaderText,
		&cfg.ExpiryDuration,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return digitalid.DefaultDesignConfig(), nil
	}
	if err != nil {
		return digitalid.DesignConfig{}, fmt.Errorf("scan design config: %w", err)
	}
	return cfg, nil
}

func (s *PostgresDesignStore) Put(ctx context.Context, cfg digitalid.DesignConfig) error {
	query := `
		INSERT INTO id_design_config (id, header_color, accent_color, text_color, font_family,
		                              header_text, sub_header_text, expiry_duration_years)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			header_color = EXCLUDED.header_color,
			accent_color = EXCLUDED.accent_color,
			text_color = EXCLUDED.text_color,
			font_family = EXCLUDED.font_family,
			header_text = EXCLUDED.header_text,
			sub_header_text = EXCLUDED.sub_header_text,
			expiry_duration_years = EXCLUDED.expiry_duration_years
	`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		cfg.HeaderColor,
		cfg.AccentColor,
		cfg.TextColor,
		cfg.FontFamily,
		cfg.HeaderText,
		cfg.SubHeaderText,
		cfg.ExpiryDuration,
	)
	if err != nil {
		return fmt.Errorf("upsert design config: %w", err)
	}
	return nil
}
