package service

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"circulation/internal/circulation/models"
	id "circulation/pkg/domain"
)

func (s *Service) ListLoans(ctx context.Context) ([]*models.Loan, error) {
	loans, err := s.stores.Loans.FindAll(ctx)
	if err != nil {
		return nil, loanStoreError(err, "failed to list loans")
	}
	return loans, nil
}

func (s *Service) ListActiveLoans(ctx context.Context) ([]*models.Loan, error) {
	return s.findLoans(ctx, models.LoanFilter{ActiveOnly: true})
}

// ListOverdueLoans returns active loans whose due day is before asOf.
func (s *Service) ListOverdueLoans(ctx context.Context, asOf time.Time) ([]*models.Loan, error) {
	day := models.Day(asOf)
	return s.findLoans(ctx, models.LoanFilter{OverdueAsOf: &day})
}

// ListMemberLoans returns a member's loans, optionally only active ones.
func (s *Service) ListMemberLoans(ctx context.Context, memberID id.MemberID, activeOnly bool) ([]*models.Loan, error) {
	return s.findLoans(ctx, models.LoanFilter{MemberID: &memberID, ActiveOnly: activeOnly})
}

func (s *Service) CountActiveLoans(ctx context.Context) (int, error) {
	loans, err := s.ListActiveLoans(ctx)
	if err != nil {
		return 0, err
	}
	return len(loans), nil
}

func (s *Service) CountOverdueLoans(ctx context.Context, asOf time.Time) (int, error) {
	loans, err := s.ListOverdueLoans(ctx, asOf)
	if err != nil {
		return 0, err
	}
	return len(loans), nil
}

// TotalOverdueFines sums the fines overdue loans would owe if returned on asOf.
func (s *Service) TotalOverdueFines(ctx context.Context, asOf time.Time) (float64, error) {
	loans, err := s.ListOverdueLoans(ctx, asOf)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, l := range loans {
		total += s.fines.CurrentFine(l, asOf)
	}
	return math.Round(total*100) / 100, nil
}

// Stats gathers the circulation aggregates concurrently.
func (s *Service) Stats(ctx context.Context, asOf time.Time) (*models.Stats, error) {
	stats := &models.Stats{AsOf: models.Day(asOf)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.CountActiveLoans(gctx)
		stats.ActiveLoans = n
		return err
	})
	g.Go(func() error {
		n, err := s.CountOverdueLoans(gctx, asOf)
		stats.OverdueLoans = n
		return err
	})
	g.Go(func() error {
		total, err := s.TotalOverdueFines(gctx, asOf)
		stats.TotalOverdueFines = total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Service) findLoans(ctx context.Context, filter models.LoanFilter) ([]*models.Loan, error) {
	loans, err := s.stores.Loans.FindBy(ctx, filter)
	if err != nil {
		return nil, loanStoreError(err, "failed to find loans")
	}
	return loans, nil
}
