package loan

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"circulation/internal/circulation/models"
	id "circulation/pkg/domain"
	"circulation/pkg/platform/sentinel"
)

type LoanStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	today time.Time
}

func (s *LoanStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.today = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
}

func TestLoanStoreSuite(t *testing.T) {
	suite.Run(t, new(LoanStoreSuite))
}

func (s *LoanStoreSuite) newLoan(itemID id.ItemID, memberID id.MemberID, dueInDays int) *models.Loan {
	l, err := models.NewLoan(id.NewLoanID(), itemID, memberID, s.today, s.today.AddDate(0, 0, dueInDays), "", s.today)
	s.Require().NoError(err)
	return l
}

func (s *LoanStoreSuite) TestLookups() {
	s.Run("saves and finds loan by ID", func() {
		l := s.newLoan(id.ItemID(uuid.New()), id.MemberID(uuid.New()), 14)
		s.Require().NoError(s.store.Save(s.ctx, l))

		found, err := s.store.FindByID(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Equal(l, found)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewLoanID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned copies are independent", func() {
		l := s.newLoan(id.ItemID(uuid.New()), id.MemberID(uuid.New()), 14)
		s.Require().NoError(s.store.Save(s.ctx, l))

		found, err := s.store.FindByID(s.ctx, l.ID)
		s.Require().NoError(err)
		found.ApplyReturn(s.today, 0)

		again, err := s.store.FindByID(s.ctx, l.ID)
		s.Require().NoError(err)
		s.False(again.Returned)
	})
}

// TestActiveLoanUniqueness mirrors the partial unique index on active loans.
func (s *LoanStoreSuite) TestActiveLoanUniqueness() {
	itemID, memberID := id.ItemID(uuid.New()), id.MemberID(uuid.New())
	first := s.newLoan(itemID, memberID, 14)
	s.Require().NoError(s.store.Save(s.ctx, first))

	s.Run("rejects second active loan for same member and item", func() {
		err := s.store.Save(s.ctx, s.newLoan(itemID, memberID, 14))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("allows a new loan once the first is returned", func() {
		first.ApplyReturn(s.today, 0)
		s.Require().NoError(s.store.Save(s.ctx, first))
		s.Require().NoError(s.store.Save(s.ctx, s.newLoan(itemID, memberID, 14)))
	})

	s.Run("updating the same loan is not a duplicate", func() {
		other := s.newLoan(id.ItemID(uuid.New()), memberID, 14)
		s.Require().NoError(s.store.Save(s.ctx, other))
		other.ApplyRenewal(s.today.AddDate(0, 0, 30))
		s.Require().NoError(s.store.Save(s.ctx, other))
	})
}

func (s *LoanStoreSuite) TestDelete() {
	l := s.newLoan(id.ItemID(uuid.New()), id.MemberID(uuid.New()), 14)
	s.Require().NoError(s.store.Save(s.ctx, l))

	s.Require().NoError(s.store.Delete(s.ctx, l.ID))
	_, err := s.store.FindByID(s.ctx, l.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Require().ErrorIs(s.store.Delete(s.ctx, l.ID), sentinel.ErrNotFound)
}

func (s *LoanStoreSuite) TestFindBy() {
	itemA, itemB := id.ItemID(uuid.New()), id.ItemID(uuid.New())
	alice, bob := id.MemberID(uuid.New()), id.MemberID(uuid.New())

	dueSoon := s.newLoan(itemA, alice, 1)
	dueLater := s.newLoan(itemB, alice, 20)
	dueLater.CreatedAt = s.today.Add(time.Minute)
	returned := s.newLoan(itemA, bob, 1)
	returned.CreatedAt = s.today.Add(2 * time.Minute)
	returned.ApplyReturn(s.today, 0)
	for _, l := range []*models.Loan{dueSoon, dueLater, returned} {
		s.Require().NoError(s.store.Save(s.ctx, l))
	}

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(dueSoon.ID, all[0].ID)
	s.Equal(returned.ID, all[2].ID)

	active, err := s.store.FindBy(s.ctx, models.LoanFilter{ActiveOnly: true})
	s.Require().NoError(err)
	s.Len(active, 2)

	byMember, err := s.store.FindBy(s.ctx, models.LoanFilter{MemberID: &bob})
	s.Require().NoError(err)
	s.Require().Len(byMember, 1)
	s.Equal(returned.ID, byMember[0].ID)

	byItem, err := s.store.FindBy(s.ctx, models.LoanFilter{ItemID: &itemA, ActiveOnly: true})
	s.Require().NoError(err)
	s.Require().Len(byItem, 1)
	s.Equal(dueSoon.ID, byItem[0].ID)

	asOf := s.today.AddDate(0, 0, 5)
	overdue, err := s.store.FindBy(s.ctx, models.LoanFilter{OverdueAsOf: &asOf})
	s.Require().NoError(err)
	s.Require().Len(overdue, 1)
	s.Equal(dueSoon.ID, overdue[0].ID)
}
