package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"circulation/internal/circulation/ledger"
	"circulation/internal/circulation/models"
	id "circulation/pkg/domain"
	dErrors "circulation/pkg/domain-errors"
	"circulation/pkg/platform/sentinel"
	"circulation/pkg/requestcontext"
)

// CreateLoanRequest carries the inputs of CreateLoan. A nil DueDate means
// today plus the loan period.
type CreateLoanRequest struct {
	ItemID   id.ItemID
	MemberID id.MemberID
	DueDate  *time.Time
	Notes    string
}

// CreateLoan lends one copy of an item to a member.
func (s *Service) CreateLoan(ctx context.Context, req CreateLoanRequest) (loan *models.Loan, err error) {
	ctx, finish := s.startOp(ctx, "create_loan",
		attribute.String("item_id", req.ItemID.String()),
		attribute.String("member_id", req.MemberID.String()))
	defer finish(&err)

	now := requestcontext.Now(ctx)
	today := models.Day(now)

	err = s.inItemTx(ctx, req.ItemID, func(ctx context.Context, stores TxStores) error {
		l := ledger.New(stores.Items)
		item, err := l.Item(ctx, req.ItemID)
		if err != nil {
			return err
		}
		member, err := findMember(ctx, stores.Members, req.MemberID)
		if err != nil {
			return err
		}
		if !item.Active {
			return dErrors.New(dErrors.CodeInvalidState, "item is not available for loan: "+item.Title)
		}
		if !member.Active {
			return dErrors.New(dErrors.CodeInvalidState, "member account is not active: "+member.FullName)
		}

		active, err := stores.Loans.FindBy(ctx, models.LoanFilter{
			MemberID:   &req.MemberID,
			ItemID:     &req.ItemID,
			ActiveOnly: true,
		})
		if err != nil {
			return loanStoreError(err, "failed to check existing loans")
		}
		if len(active) > 0 {
			return dErrors.New(dErrors.CodeConflict, "member already has this item on loan: "+item.Title)
		}

		due := today.Add(s.policy.LoanPeriod)
		if req.DueDate != nil {
			due = models.Day(*req.DueDate)
		}
		if due.Before(today) {
			return dErrors.New(dErrors.CodeInvalidArgument, "due date cannot be in the past")
		}

		if _, err := l.Reserve(ctx, req.ItemID); err != nil {
			return err
		}

		created, err := models.NewLoan(id.NewLoanID(), req.ItemID, req.MemberID, today, due, req.Notes, now)
		if err == nil {
			err = stores.Loans.Save(ctx, created)
		}
		if err != nil {
			// Give the copy back; a database transaction also rolls back.
			if _, relErr := l.Release(ctx, req.ItemID); relErr != nil {
				s.logWarn(ctx, "failed to release copy after loan save error",
					"item_id", req.ItemID.String(), "error", relErr)
			}
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "member already has this item on loan: "+item.Title)
			}
			return loanStoreError(err, "failed to save loan")
		}
		loan = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementLoansCreated()
	}
	s.logInfo(ctx, "loan created",
		"loan_id", loan.ID.String(),
		"item_id", loan.ItemID.String(),
		"member_id", loan.MemberID.String(),
		"due_date", models.FormatDate(loan.DueDate))
	return loan, nil
}

// ReturnLoan closes an active loan today, settles any fine and puts the copy
// back on the shelf.
func (s *Service) ReturnLoan(ctx context.Context, loanID id.LoanID) (loan *models.Loan, err error) {
	ctx, finish := s.startOp(ctx, "return_loan", attribute.String("loan_id", loanID.String()))
	defer finish(&err)

	itemID, err := s.itemOfLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	today := models.Day(requestcontext.Now(ctx))

	err = s.inItemTx(ctx, itemID, func(ctx context.Context, stores TxStores) error {
		current, err := findLoan(ctx, stores.Loans, loanID)
		if err != nil {
			return err
		}
		if err := current.CanReturn(); err != nil {
			return err
		}

		original := current.Clone()
		var amount float64
		if today.After(current.DueDate) {
			amount = s.fines.ComputeFine(current.DueDate, today)
		}
		current.ApplyReturn(today, amount)
		if err := stores.Loans.Save(ctx, current); err != nil {
			return loanStoreError(err, "failed to save loan")
		}

		if _, err := ledger.New(stores.Items).Release(ctx, current.ItemID); err != nil {
			if restoreErr := stores.Loans.Save(ctx, original); restoreErr != nil {
				s.logError(ctx, "failed to restore loan after release error",
					"loan_id", loanID.String(), "error", restoreErr)
			}
			return err
		}
		loan = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementLoansReturned()
		s.metrics.AddFine(loan.FineAmount)
	}
	s.logInfo(ctx, "loan returned",
		"loan_id", loan.ID.String(),
		"item_id", loan.ItemID.String(),
		"fine_amount", loan.FineAmount)
	return loan, nil
}

// RenewLoan moves an active loan's due date. A nil newDue means today plus
// the renewal period. Availability is untouched.
func (s *Service) RenewLoan(ctx context.Context, loanID id.LoanID, newDue *time.Time) (loan *models.Loan, err error) {
	ctx, finish := s.startOp(ctx, "renew_loan", attribute.String("loan_id", loanID.String()))
	defer finish(&err)

	itemID, err := s.itemOfLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	today := models.Day(requestcontext.Now(ctx))

	err = s.inItemTx(ctx, itemID, func(ctx context.Context, stores TxStores) error {
		current, err := findLoan(ctx, stores.Loans, loanID)
		if err != nil {
			return err
		}
		if current.Returned {
			return dErrors.New(dErrors.CodeInvalidState, "cannot renew a returned loan")
		}

		due := today.Add(s.policy.RenewalPeriod)
		if newDue != nil {
			due = models.Day(*newDue)
		}
		if err := current.CanRenew(due, today); err != nil {
			return err
		}
		current.ApplyRenewal(due)
		if err := stores.Loans.Save(ctx, current); err != nil {
			return loanStoreError(err, "failed to save loan")
		}
		loan = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementLoansRenewed()
	}
	s.logInfo(ctx, "loan renewed",
		"loan_id", loan.ID.String(),
		"due_date", models.FormatDate(loan.DueDate))
	return loan, nil
}

// DeleteLoan removes a loan record without touching availability. Deleting
// an active loan leaves the item's counts drifted until ReconcileItem runs.
func (s *Service) DeleteLoan(ctx context.Context, loanID id.LoanID) (err error) {
	ctx, finish := s.startOp(ctx, "delete_loan", attribute.String("loan_id", loanID.String()))
	defer finish(&err)

	itemID, err := s.itemOfLoan(ctx, loanID)
	if err != nil {
		return err
	}

	var wasActive bool
	err = s.inItemTx(ctx, itemID, func(ctx context.Context, stores TxStores) error {
		current, err := findLoan(ctx, stores.Loans, loanID)
		if err != nil {
			return err
		}
		wasActive = current.IsActive()
		if err := stores.Loans.Delete(ctx, loanID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return loanNotFound(loanID)
			}
			return loanStoreError(err, "failed to delete loan")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncrementLoansDeleted()
	}
	if wasActive {
		s.logWarn(ctx, "active loan deleted, item availability needs reconciliation",
			"loan_id", loanID.String(), "item_id", itemID.String())
	} else {
		s.logInfo(ctx, "loan deleted", "loan_id", loanID.String())
	}
	return nil
}

// GetLoan returns one loan.
func (s *Service) GetLoan(ctx context.Context, loanID id.LoanID) (*models.Loan, error) {
	return findLoan(ctx, s.stores.Loans, loanID)
}

// itemOfLoan reads the loan outside the critical section to learn which
// item to lock. The loan is reloaded under the lock before any decision.
func (s *Service) itemOfLoan(ctx context.Context, loanID id.LoanID) (id.ItemID, error) {
	l, err := findLoan(ctx, s.stores.Loans, loanID)
	if err != nil {
		return id.ItemID{}, err
	}
	return l.ItemID, nil
}

func findLoan(ctx context.Context, loans LoanStore, loanID id.LoanID) (*models.Loan, error) {
	l, err := loans.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, loanNotFound(loanID)
		}
		return nil, loanStoreError(err, "failed to load loan")
	}
	return l, nil
}

func findMember(ctx context.Context, members MemberStore, memberID id.MemberID) (*models.Member, error) {
	m, err := members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found with id: "+memberID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return m, nil
}

func loanNotFound(loanID id.LoanID) error {
	return dErrors.New(dErrors.CodeNotFound, "loan not found with id: "+loanID.String())
}

// loanStoreError keeps contention visible to the retry loop and hides other
// store failures behind an internal error.
func loanStoreError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrContention) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
