// Package ledger owns the copy counts of catalog items. It is the only code
// that changes TotalCopies or AvailableCopies.
//
// The ledger does not lock. Callers run it inside the per-item critical
// section so that the read-modify-write of an item is never interleaved.
package ledger

import (
	"context"
	"errors"

	"circulation/internal/circulation/models"
	id "circulation/pkg/domain"
	dErrors "circulation/pkg/domain-errors"
	"circulation/pkg/platform/sentinel"
)

// ItemStore is the catalog accessor the ledger reads and persists through.
type ItemStore interface {
	FindByID(ctx context.Context, itemID id.ItemID) (*models.CatalogItem, error)
	Save(ctx context.Context, item *models.CatalogItem) error
}

type Ledger struct {
	items ItemStore
}

func New(items ItemStore) *Ledger {
	return &Ledger{items: items}
}

// Reserve takes one copy of the item off the shelf.
func (l *Ledger) Reserve(ctx context.Context, itemID id.ItemID) (*models.CatalogItem, error) {
	return l.mutate(ctx, itemID, func(item *models.CatalogItem) error {
		if err := item.CanReserve(); err != nil {
			return err
		}
		item.ApplyReserve()
		return nil
	})
}

// Release puts one copy of the item back on the shelf.
func (l *Ledger) Release(ctx context.Context, itemID id.ItemID) (*models.CatalogItem, error) {
	return l.mutate(ctx, itemID, func(item *models.CatalogItem) error {
		if err := item.CanRelease(); err != nil {
			return err
		}
		item.ApplyRelease()
		return nil
	})
}

// SetCapacity changes the total copy count while keeping borrowed copies
// accounted for.
func (l *Ledger) SetCapacity(ctx context.Context, itemID id.ItemID, newTotal int) (*models.CatalogItem, error) {
	return l.mutate(ctx, itemID, func(item *models.CatalogItem) error {
		if err := item.CanResize(newTotal); err != nil {
			return err
		}
		item.ApplyResize(newTotal)
		return nil
	})
}

// Reconcile sets availability from the number of active loans on the item.
// It repairs drift left behind by administrative loan deletion.
func (l *Ledger) Reconcile(ctx context.Context, itemID id.ItemID, activeLoans int) (*models.LedgerReport, error) {
	var report *models.LedgerReport
	_, err := l.mutate(ctx, itemID, func(item *models.CatalogItem) error {
		report = models.NewLedgerReport(item, activeLoans)
		if activeLoans > item.TotalCopies {
			return dErrors.New(dErrors.CodeInvariantViolation, "active loans exceed total copies for item: "+item.Title)
		}
		if report.Consistent() {
			return errUnchanged
		}
		item.AvailableCopies = item.TotalCopies - activeLoans
		report.AvailableAfter = item.AvailableCopies
		report.Repaired = true
		return nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return nil, err
	}
	return report, nil
}

// Item loads the item without changing it.
func (l *Ledger) Item(ctx context.Context, itemID id.ItemID) (*models.CatalogItem, error) {
	item, err := l.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "item not found with id: "+itemID.String())
		}
		if errors.Is(err, sentinel.ErrContention) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load item")
	}
	return item, nil
}

var errUnchanged = errors.New("ledger: item unchanged")

func (l *Ledger) mutate(ctx context.Context, itemID id.ItemID, apply func(item *models.CatalogItem) error) (*models.CatalogItem, error) {
	item, err := l.Item(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := apply(item); err != nil {
		return nil, err
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := l.items.Save(ctx, item); err != nil {
		if errors.Is(err, sentinel.ErrContention) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist item")
	}
	return item, nil
}
