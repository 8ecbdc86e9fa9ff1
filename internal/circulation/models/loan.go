package models

import (
	"time"

	id "circulation/pkg/domain"
	dErrors "circulation/pkg/domain-errors"
)

// LoanStatus is derived from Returned; a loan is either active or returned.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusReturned LoanStatus = "returned"
)

// Loan records one copy of an item lent to a member.
//
// Invariants:
//   - Returned is false exactly when ReturnDate is nil
//   - FineAmount >= 0; it is settled on return, before that the live fine is
//     projected from DueDate
//   - DueDate is never earlier than LoanDate
//
// Dates are calendar days (see Day). State transitions: active -> returned
// (terminal); renew keeps the loan active with a later due date.
type Loan struct {
	ID         id.LoanID   `json:"id"`
	ItemID     id.ItemID   `json:"item_id"`
	MemberID   id.MemberID `json:"member_id"`
	LoanDate   time.Time   `json:"loan_date"`
	DueDate    time.Time   `json:"due_date"`
	ReturnDate *time.Time  `json:"return_date,omitempty"`
	Returned   bool        `json:"returned"`
	FineAmount float64     `json:"fine_amount"`
	Notes      string      `json:"notes,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewLoan builds an active loan issued on today.
func NewLoan(loanID id.LoanID, itemID id.ItemID, memberID id.MemberID, today, dueDate time.Time, notes string, now time.Time) (*Loan, error) {
	if loanID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "loan ID required")
	}
	if itemID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "item ID required")
	}
	if memberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member ID required")
	}
	loanDate := Day(today)
	due := Day(dueDate)
	if due.Before(loanDate) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "due date cannot be before loan date")
	}
	return &Loan{
		ID:        loanID,
		ItemID:    itemID,
		MemberID:  memberID,
		LoanDate:  loanDate,
		DueDate:   due,
		Notes:     notes,
		CreatedAt: now,
	}, nil
}

func (l *Loan) Status() LoanStatus {
	if l.Returned {
		return LoanStatusReturned
	}
	return LoanStatusActive
}

// IsActive reports whether the loan still holds a copy.
func (l *Loan) IsActive() bool {
	return !l.Returned
}

// IsOverdue reports whether the loan is active and asOf falls after its due day.
// A returned loan is never overdue.
func (l *Loan) IsOverdue(asOf time.Time) bool {
	return !l.Returned && Day(asOf).After(l.DueDate)
}

// DaysOverdue is the number of calendar days past due as of asOf, or 0.
func (l *Loan) DaysOverdue(asOf time.Time) int64 {
	if !l.IsOverdue(asOf) {
		return 0
	}
	return DaysBetween(l.DueDate, asOf)
}

// CanReturn checks the loan can transition to returned.
func (l *Loan) CanReturn() error {
	if l.Returned {
		return dErrors.New(dErrors.CodeInvalidState, "loan already returned")
	}
	return nil
}

// ApplyReturn closes the loan on today and settles fine. Call CanReturn first.
func (l *Loan) ApplyReturn(today time.Time, fine float64) {
	returned := Day(today)
	l.Returned = true
	l.ReturnDate = &returned
	if fine > 0 {
		l.FineAmount = fine
	}
}

// CanRenew checks that the loan can move its due date to newDue.
func (l *Loan) CanRenew(newDue, today time.Time) error {
	if l.Returned {
		return dErrors.New(dErrors.CodeInvalidState, "cannot renew a returned loan")
	}
	if Day(newDue).Before(l.DueDate) {
		return dErrors.New(dErrors.CodeInvalidArgument, "new due date cannot be before current due date")
	}
	if Day(newDue).Before(Day(today)) {
		return dErrors.New(dErrors.CodeInvalidArgument, "due date cannot be in the past")
	}
	return nil
}

// ApplyRenewal moves the due date. Call CanRenew first.
func (l *Loan) ApplyRenewal(newDue time.Time) {
	l.DueDate = Day(newDue)
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	c := *l
	if l.ReturnDate != nil {
		rd := *l.ReturnDate
		c.ReturnDate = &rd
	}
	return &c
}

// LoanFilter selects loans in FindBy. Zero fields match everything.
type LoanFilter struct {
	MemberID   *id.MemberID
	ItemID     *id.ItemID
	ActiveOnly bool
	// OverdueAsOf, when set, keeps only loans overdue on that day and
	// implies ActiveOnly.
	OverdueAsOf *time.Time
}

// Matches reports whether l satisfies the filter.
func (f LoanFilter) Matches(l *Loan) bool {
	if f.MemberID != nil && l.MemberID != *f.MemberID {
		return false
	}
	if f.ItemID != nil && l.ItemID != *f.ItemID {
		return false
	}
	if f.ActiveOnly && l.Returned {
		return false
	}
	if f.OverdueAsOf != nil && !l.IsOverdue(*f.OverdueAsOf) {
		return false
	}
	return true
}
