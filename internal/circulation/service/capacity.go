package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"circulation/internal/circulation/ledger"
	"circulation/internal/circulation/models"
	id "circulation/pkg/domain"
)

// SetCapacity changes how many copies of an item the catalog owns.
func (s *Service) SetCapacity(ctx context.Context, itemID id.ItemID, totalCopies int) (item *models.CatalogItem, err error) {
	ctx, finish := s.startOp(ctx, "set_capacity",
		attribute.String("item_id", itemID.String()),
		attribute.Int("total_copies", totalCopies))
	defer finish(&err)

	err = s.inItemTx(ctx, itemID, func(ctx context.Context, stores TxStores) error {
		updated, err := ledger.New(stores.Items).SetCapacity(ctx, itemID, totalCopies)
		if err != nil {
			return err
		}
		item = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logInfo(ctx, "item capacity changed",
		"item_id", itemID.String(),
		"total_copies", item.TotalCopies,
		"available_copies", item.AvailableCopies)
	return item, nil
}

// ReconcileItem recomputes availability from the item's active loans.
func (s *Service) ReconcileItem(ctx context.Context, itemID id.ItemID) (report *models.LedgerReport, err error) {
	ctx, finish := s.startOp(ctx, "reconcile_item", attribute.String("item_id", itemID.String()))
	defer finish(&err)

	err = s.inItemTx(ctx, itemID, func(ctx context.Context, stores TxStores) error {
		active, err := countActiveOnItem(ctx, stores.Loans, itemID)
		if err != nil {
			return err
		}
		r, err := ledger.New(stores.Items).Reconcile(ctx, itemID, active)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if report.Repaired {
		s.logWarn(ctx, "item availability repaired",
			"item_id", itemID.String(),
			"drift", report.Drift,
			"available_before", report.AvailableBefore,
			"available_after", report.AvailableAfter)
	}
	return report, nil
}

// CheckLedger compares an item's availability with its active loans without
// changing anything.
func (s *Service) CheckLedger(ctx context.Context, itemID id.ItemID) (report *models.LedgerReport, err error) {
	ctx, finish := s.startOp(ctx, "check_ledger", attribute.String("item_id", itemID.String()))
	defer finish(&err)

	err = s.inItemTx(ctx, itemID, func(ctx context.Context, stores TxStores) error {
		item, err := ledger.New(stores.Items).Item(ctx, itemID)
		if err != nil {
			return err
		}
		active, err := countActiveOnItem(ctx, stores.Loans, itemID)
		if err != nil {
			return err
		}
		report = models.NewLedgerReport(item, active)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func countActiveOnItem(ctx context.Context, loans LoanStore, itemID id.ItemID) (int, error) {
	active, err := loans.FindBy(ctx, models.LoanFilter{ItemID: &itemID, ActiveOnly: true})
	if err != nil {
		return 0, loanStoreError(err, "failed to count active loans")
	}
	return len(active), nil
}
