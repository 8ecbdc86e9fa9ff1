package service

import (
	"context"
	"errors"
	"time"

	"circulation/internal/circulation/lock"
	id "circulation/pkg/domain"
	dErrors "circulation/pkg/domain-errors"
	"circulation/pkg/platform/sentinel"
)

// TxStores are the stores a critical section reads and writes through.
type TxStores struct {
	Items   ItemStore
	Members MemberStore
	Loans   LoanStore
}

// CirculationTx runs fn as the critical section of one catalog item.
// Bodies for the same item never overlap; bodies for different items may.
// Implementations wrap a database transaction with row locks or, in memory,
// a keyed lock. Losing a race surfaces as an error wrapping
// sentinel.ErrContention so the caller can retry.
type CirculationTx interface {
	RunInTx(ctx context.Context, itemID id.ItemID, fn func(ctx context.Context, stores TxStores) error) error
}

// defaultTxTimeout is the maximum duration for a circulation transaction.
const defaultTxTimeout = 5 * time.Second

// lockingTx serializes bodies with a lock.Locker keyed by item ID. It is the
// in-memory deployment's transaction: there is nothing to roll back, so the
// service compensates explicitly when a later step fails.
type lockingTx struct {
	locker  lock.Locker
	stores  TxStores
	timeout time.Duration
}

// NewLockingTx returns a CirculationTx over locker. A zero timeout uses 5s.
func NewLockingTx(locker lock.Locker, stores TxStores, timeout time.Duration) CirculationTx {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return &lockingTx{locker: locker, stores: stores, timeout: timeout}
}

func (t *lockingTx) RunInTx(ctx context.Context, itemID id.ItemID, fn func(ctx context.Context, stores TxStores) error) error {
	// Check if context is already cancelled
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	unlock, err := t.locker.Lock(ctx, itemID.String())
	if err != nil {
		return err
	}
	defer unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx, t.stores)
}

// inItemTx runs fn in the item's critical section, retrying contention up
// to the policy's attempt budget.
func (s *Service) inItemTx(ctx context.Context, itemID id.ItemID, fn func(ctx context.Context, stores TxStores) error) error {
	attempts := s.policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = s.tx.RunInTx(ctx, itemID, fn)
		if err == nil || !errors.Is(err, sentinel.ErrContention) {
			return err
		}
		if ctx.Err() != nil || attempt == attempts {
			break
		}
		if s.metrics != nil {
			s.metrics.IncrementTxRetries()
		}
		s.logWarn(ctx, "item busy, retrying", "item_id", itemID.String(), "attempt", attempt)
		if !sleep(ctx, s.backoff*time.Duration(attempt)) {
			break
		}
	}

	if ctx.Err() != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "timed out waiting for item")
	}
	return dErrors.Wrap(err, dErrors.CodeConflict, "item is busy, try again")
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
