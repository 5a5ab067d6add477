package main

import (
	"context"
	"database/sql"
	"time"

	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
	txcontext "kabaleid/pkg/platform/tx"
)

const defaultReviewTxTimeout = 5 * time.Second

// reviewPostgresTx runs the review flow inside one serializable transaction.
// The transaction is placed in context, so every store call inside fn joins
// it. Serializable isolation plus the FOR UPDATE read in the active-ID check
// keep concurrent approvals for one citizen from both issuing.
type reviewPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newReviewPostgresTx(db *sql.DB) *reviewPostgresTx {
	return &reviewPostgresTx{db: db}
}

func (t *reviewPostgresTx) RunInTx(ctx context.Context, _ domain.CitizenID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultReviewTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}
