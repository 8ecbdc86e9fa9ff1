package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"circulation/internal/circulation/lock"
	"circulation/internal/circulation/service"
	itemstore "circulation/internal/circulation/store/item"
	"circulation/internal/platform/postgres"
	id "circulation/pkg/domain"
	dErrors "circulation/pkg/domain-errors"
	"circulation/pkg/platform/sentinel"
	"circulation/pkg/platform/tx"
)

const defaultCirculationTxTimeout = 5 * time.Second

// circulationPostgresTx makes one item's critical section a database
// transaction holding the catalog row lock. An optional locker (Redis across
// replicas) is taken first so waiters queue outside the connection pool.
type circulationPostgresTx struct {
	db      *sql.DB
	items   *itemstore.PostgresStore
	stores  service.TxStores
	locker  lock.Locker
	timeout time.Duration
}

func newCirculationPostgresTx(db *sql.DB, items *itemstore.PostgresStore, stores service.TxStores, locker lock.Locker, timeout time.Duration) *circulationPostgresTx {
	return &circulationPostgresTx{db: db, items: items, stores: stores, locker: locker, timeout: timeout}
}

func (t *circulationPostgresTx) RunInTx(ctx context.Context, itemID id.ItemID, fn func(ctx context.Context, stores service.TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultCirculationTxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if t.locker != nil {
		unlock, err := t.locker.Lock(ctx, itemID.String())
		if err != nil {
			return err
		}
		defer unlock()
	}

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin circulation tx: %w", postgres.Classify(err))
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	// lock_timeout turns a stuck row lock into 55P03, which Classify maps to
	// contention so the service retries instead of waiting out the deadline.
	if _, err := sqlTx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", (timeout / 2).Milliseconds())); err != nil {
		return fmt.Errorf("set lock timeout: %w", postgres.Classify(err))
	}

	ctx = tx.WithTx(ctx, sqlTx)
	if err := t.items.LockForUpdate(ctx, itemID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}

	if err := fn(ctx, t.stores); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit circulation tx: %w", postgres.Classify(err))
	}
	return nil
}
