package loan

import (
	"context"
	"sort"
	"sync"

	"circulation/internal/circulation/models"
	id "circulation/pkg/domain"
	"circulation/pkg/platform/sentinel"
)

// InMemory stores loans keyed by ID. Like the PostgreSQL partial index, it
// refuses a second active loan for the same member and item.
type InMemory struct {
	mu    sync.RWMutex
	loans map[id.LoanID]*models.Loan
}

func NewInMemory() *InMemory {
	return &InMemory{loans: make(map[id.LoanID]*models.Loan)}
}

func (s *InMemory) FindByID(_ context.Context, loanID id.LoanID) (*models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.loans[loanID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return l.Clone(), nil
}

// Save inserts or replaces the loan atomically.
func (s *InMemory) Save(_ context.Context, loan *models.Loan) error {
	if loan == nil {
		return sentinel.ErrInvalidState
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !loan.Returned {
		for _, existing := range s.loans {
			if existing.ID != loan.ID && !existing.Returned &&
				existing.MemberID == loan.MemberID && existing.ItemID == loan.ItemID {
				return sentinel.ErrAlreadyUsed
			}
		}
	}
	s.loans[loan.ID] = loan.Clone()
	return nil
}

func (s *InMemory) Delete(_ context.Context, loanID id.LoanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loans[loanID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.loans, loanID)
	return nil
}

func (s *InMemory) FindAll(ctx context.Context) ([]*models.Loan, error) {
	return s.FindBy(ctx, models.LoanFilter{})
}

// FindBy returns matching loans, oldest first.
func (s *InMemory) FindBy(_ context.Context, filter models.LoanFilter) ([]*models.Loan, error) {
	s.mu.RLock()
	out := make([]*models.Loan, 0, len(s.loans))
	for _, l := range s.loans {
		if filter.Matches(l) {
			out = append(out, l.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
