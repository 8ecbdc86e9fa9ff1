package handler

import (
	"strings"
	"time"

	"circulation/internal/circulation/models"
	"circulation/internal/circulation/service"
	id "circulation/pkg/domain"
	dErrors "circulation/pkg/domain-errors"
)

// maxNotesLength matches the notes column budget of the loan record.
const maxNotesLength = 500

// CreateLoanRequest is the body of POST /loans.
type CreateLoanRequest struct {
	ItemID   string  `json:"item_id"`
	MemberID string  `json:"member_id"`
	DueDate  *string `json:"due_date,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

func (r *CreateLoanRequest) Normalize() {
	r.ItemID = strings.TrimSpace(r.ItemID)
	r.MemberID = strings.TrimSpace(r.MemberID)
	r.Notes = strings.TrimSpace(r.Notes)
	if r.DueDate != nil {
		trimmed := strings.TrimSpace(*r.DueDate)
		if trimmed == "" {
			r.DueDate = nil
		} else {
			r.DueDate = &trimmed
		}
	}
}

func (r *CreateLoanRequest) Validate() error {
	if r.ItemID == "" {
		return dErrors.New(dErrors.CodeValidation, "item_id is required")
	}
	if r.MemberID == "" {
		return dErrors.New(dErrors.CodeValidation, "member_id is required")
	}
	if len(r.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes must be 500 characters or less")
	}
	return nil
}

// ToCommand parses identifiers and dates. Call Normalize and Validate first.
func (r *CreateLoanRequest) ToCommand() (service.CreateLoanRequest, error) {
	itemID, err := id.ParseItemID(r.ItemID)
	if err != nil {
		return service.CreateLoanRequest{}, err
	}
	memberID, err := id.ParseMemberID(r.MemberID)
	if err != nil {
		return service.CreateLoanRequest{}, err
	}
	due, err := parseOptionalDate("due_date", r.DueDate)
	if err != nil {
		return service.CreateLoanRequest{}, err
	}
	return service.CreateLoanRequest{
		ItemID:   itemID,
		MemberID: memberID,
		DueDate:  due,
		Notes:    r.Notes,
	}, nil
}

// RenewLoanRequest is the optional body of POST /loans/{loanID}/renew.
type RenewLoanRequest struct {
	DueDate *string `json:"due_date,omitempty"`
}

func (r *RenewLoanRequest) DueDateValue() (*time.Time, error) {
	if r.DueDate != nil {
		trimmed := strings.TrimSpace(*r.DueDate)
		if trimmed == "" {
			return nil, nil
		}
		r.DueDate = &trimmed
	}
	return parseOptionalDate("due_date", r.DueDate)
}

// SetCapacityRequest is the body of PUT /items/{itemID}/capacity.
type SetCapacityRequest struct {
	TotalCopies *int `json:"total_copies"`
}

func (r *SetCapacityRequest) Validate() error {
	if r.TotalCopies == nil {
		return dErrors.New(dErrors.CodeValidation, "total_copies is required")
	}
	return nil
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := models.ParseDate(*value)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, field+" must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}
