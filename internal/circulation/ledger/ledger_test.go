package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"circulation/internal/circulation/models"
	itemstore "circulation/internal/circulation/store/item"
	id "circulation/pkg/domain"
	dErrors "circulation/pkg/domain-errors"
	"circulation/pkg/platform/sentinel"
)

type LedgerSuite struct {
	suite.Suite
	items  *itemstore.InMemory
	ledger *Ledger
	ctx    context.Context
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.items = itemstore.NewInMemory()
	s.ledger = New(s.items)
	s.ctx = context.Background()
}

func (s *LedgerSuite) addItem(total, available int, active bool) *models.CatalogItem {
	item := &models.CatalogItem{
		ID:              id.ItemID(uuid.New()),
		Title:           "The Left Hand of Darkness",
		TotalCopies:     total,
		AvailableCopies: available,
		Active:          active,
	}
	s.Require().NoError(s.items.Save(s.ctx, item))
	return item
}

func (s *LedgerSuite) stored(itemID id.ItemID) *models.CatalogItem {
	item, err := s.items.FindByID(s.ctx, itemID)
	s.Require().NoError(err)
	return item
}

func (s *LedgerSuite) TestReserve() {
	s.Run("decrements availability and persists", func() {
		item := s.addItem(3, 3, true)
		updated, err := s.ledger.Reserve(s.ctx, item.ID)
		s.Require().NoError(err)
		s.Equal(2, updated.AvailableCopies)
		s.Equal(2, s.stored(item.ID).AvailableCopies)
	})

	s.Run("unavailable when no copies remain", func() {
		item := s.addItem(1, 0, true)
		_, err := s.ledger.Reserve(s.ctx, item.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Contains(err.Error(), item.Title)
		s.Equal(0, s.stored(item.ID).AvailableCopies)
	})

	s.Run("unavailable when item is inactive", func() {
		item := s.addItem(2, 2, false)
		_, err := s.ledger.Reserve(s.ctx, item.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Equal(2, s.stored(item.ID).AvailableCopies)
	})

	s.Run("not found for unknown item", func() {
		_, err := s.ledger.Reserve(s.ctx, id.ItemID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *LedgerSuite) TestRelease() {
	s.Run("increments availability", func() {
		item := s.addItem(3, 1, true)
		updated, err := s.ledger.Release(s.ctx, item.ID)
		s.Require().NoError(err)
		s.Equal(2, updated.AvailableCopies)
	})

	s.Run("refuses to exceed total copies", func() {
		item := s.addItem(2, 2, true)
		_, err := s.ledger.Release(s.ctx, item.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Equal(2, s.stored(item.ID).AvailableCopies)
	})
}

func (s *LedgerSuite) TestSetCapacity() {
	s.Run("grows and shrinks around borrowed copies", func() {
		item := s.addItem(3, 1, true)

		updated, err := s.ledger.SetCapacity(s.ctx, item.ID, 5)
		s.Require().NoError(err)
		s.Equal(5, updated.TotalCopies)
		s.Equal(3, updated.AvailableCopies)

		updated, err = s.ledger.SetCapacity(s.ctx, item.ID, 2)
		s.Require().NoError(err)
		s.Equal(2, updated.TotalCopies)
		s.Equal(0, updated.AvailableCopies)
	})

	s.Run("rejects totals below borrowed or negative", func() {
		item := s.addItem(3, 1, true)
		_, err := s.ledger.SetCapacity(s.ctx, item.ID, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))
		_, err = s.ledger.SetCapacity(s.ctx, item.ID, -1)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))

		stored := s.stored(item.ID)
		s.Equal(3, stored.TotalCopies)
		s.Equal(1, stored.AvailableCopies)
	})
}

func (s *LedgerSuite) TestReconcile() {
	s.Run("repairs drift", func() {
		item := s.addItem(3, 1, true)
		report, err := s.ledger.Reconcile(s.ctx, item.ID, 1)
		s.Require().NoError(err)
		s.True(report.Repaired)
		s.Equal(-1, report.Drift)
		s.Equal(1, report.AvailableBefore)
		s.Equal(2, report.AvailableAfter)
		s.Equal(2, s.stored(item.ID).AvailableCopies)
	})

	s.Run("leaves consistent item untouched", func() {
		item := s.addItem(3, 2, true)
		report, err := s.ledger.Reconcile(s.ctx, item.ID, 1)
		s.Require().NoError(err)
		s.False(report.Repaired)
		s.Equal(2, report.AvailableAfter)
	})

	s.Run("refuses when loans exceed copies", func() {
		item := s.addItem(1, 0, true)
		_, err := s.ledger.Reconcile(s.ctx, item.ID, 2)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

type failingItems struct {
	*itemstore.InMemory
	saveErr error
}

func (f *failingItems) Save(context.Context, *models.CatalogItem) error { return f.saveErr }

func (s *LedgerSuite) TestPersistenceFailures() {
	item := s.addItem(2, 2, true)

	s.Run("contention passes through for retry", func() {
		l := New(&failingItems{InMemory: s.items, saveErr: sentinel.ErrContention})
		_, err := l.Reserve(s.ctx, item.ID)
		s.ErrorIs(err, sentinel.ErrContention)
	})

	s.Run("other failures become internal errors", func() {
		l := New(&failingItems{InMemory: s.items, saveErr: errors.New("disk full")})
		_, err := l.Reserve(s.ctx, item.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
