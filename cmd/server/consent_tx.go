package main

import (
	"context"
	"database/sql"
	"time"

	consentservice "trialconsent/internal/consent/service"
	dErrors "trialconsent/pkg/domain-errors"
	txcontext "trialconsent/pkg/platform/tx"
)

const defaultConsentTxTimeout = 5 * time.Second

// consentPostgresTx runs a consent validation and its writes in one database
// transaction. Transactions for the same subject are serialized with a
// transaction-scoped advisory lock so a re-consent check always sees the
// committed row it is compared with.
type consentPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newConsentPostgresTx(db *sql.DB) *consentPostgresTx {
	return &consentPostgresTx{db: db}
}

func (t *consentPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultConsentTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if key := consentservice.TxKey(ctx); key != "" {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock subject")
		}
	}

	txCtx, runHooks := txcontext.WithCommitHooks(txcontext.WithTx(ctx, tx))
	if err := fn(txCtx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	runHooks(ctx)
	return nil
}
