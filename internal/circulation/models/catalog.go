package models

import (
	"fmt"

	id "circulation/pkg/domain"
	dErrors "circulation/pkg/domain-errors"
)

// CatalogItem is one catalog record and its copy counts.
//
// Invariants:
//   - 0 <= AvailableCopies <= TotalCopies
//   - TotalCopies - AvailableCopies equals the number of active loans on the item
//
// Only the availability ledger changes the counts.
type CatalogItem struct {
	ID              id.ItemID `json:"id"`
	Title           string    `json:"title"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	Active          bool      `json:"active"`
}

// NewCatalogItem builds an active item with every copy on the shelf.
func NewCatalogItem(itemID id.ItemID, title string, totalCopies int) (*CatalogItem, error) {
	if itemID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "item ID required")
	}
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "item title cannot be empty")
	}
	if totalCopies < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "total copies cannot be negative")
	}
	return &CatalogItem{
		ID:              itemID,
		Title:           title,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		Active:          true,
	}, nil
}

// Borrowed is the number of copies currently out on loan.
func (i *CatalogItem) Borrowed() int {
	return i.TotalCopies - i.AvailableCopies
}

// Validate reports whether the copy counts satisfy the item invariants.
func (i *CatalogItem) Validate() error {
	if i.TotalCopies < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "total copies cannot be negative")
	}
	if i.AvailableCopies < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "available copies cannot be negative")
	}
	if i.AvailableCopies > i.TotalCopies {
		return dErrors.New(dErrors.CodeInvariantViolation, "available copies cannot exceed total copies")
	}
	return nil
}

// CanReserve checks that a copy can be taken off the shelf.
func (i *CatalogItem) CanReserve() error {
	if !i.Active {
		return dErrors.New(dErrors.CodeUnavailable, "item is not available for loan: "+i.Title)
	}
	if i.AvailableCopies <= 0 {
		return dErrors.New(dErrors.CodeUnavailable, "no copies available for loan for item: "+i.Title)
	}
	return nil
}

// ApplyReserve takes one copy off the shelf. Call CanReserve first.
func (i *CatalogItem) ApplyReserve() {
	i.AvailableCopies--
}

// CanRelease checks that a copy can go back on the shelf.
func (i *CatalogItem) CanRelease() error {
	if i.AvailableCopies+1 > i.TotalCopies {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("available copies cannot exceed total copies for item: %s", i.Title))
	}
	return nil
}

// ApplyRelease puts one copy back on the shelf. Call CanRelease first.
func (i *CatalogItem) ApplyRelease() {
	i.AvailableCopies++
}

// CanResize checks that the item can hold newTotal copies without losing
// track of the ones already on loan.
func (i *CatalogItem) CanResize(newTotal int) error {
	if newTotal < 0 {
		return dErrors.New(dErrors.CodeInvalidArgument, "total copies must be a non-negative number")
	}
	if borrowed := i.Borrowed(); newTotal < borrowed {
		return dErrors.New(dErrors.CodeInvalidArgument,
			fmt.Sprintf("new total copies (%d) cannot be less than currently borrowed copies (%d)", newTotal, borrowed))
	}
	return nil
}

// ApplyResize sets the total and keeps the borrowed count fixed.
func (i *CatalogItem) ApplyResize(newTotal int) {
	borrowed := i.Borrowed()
	i.TotalCopies = newTotal
	i.AvailableCopies = newTotal - borrowed
}

// Member is a borrower. Only Active gates circulation.
type Member struct {
	ID       id.MemberID `json:"id"`
	FullName string      `json:"full_name"`
	Active   bool        `json:"active"`
}
