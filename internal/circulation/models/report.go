package models

import (
	"time"

	id "circulation/pkg/domain"
)

// LedgerReport compares an item's recorded counts with its active loans.
// Drift is zero when the item invariant holds.
type LedgerReport struct {
	ItemID          id.ItemID `json:"item_id"`
	TotalCopies     int       `json:"total_copies"`
	AvailableBefore int       `json:"available_before"`
	AvailableAfter  int       `json:"available_after"`
	ActiveLoans     int       `json:"active_loans"`
	Drift           int       `json:"drift"`
	Repaired        bool      `json:"repaired"`
}

// NewLedgerReport computes the expected availability for item given its active loan count.
func NewLedgerReport(item *CatalogItem, activeLoans int) *LedgerReport {
	expected := item.TotalCopies - activeLoans
	return &LedgerReport{
		ItemID:          item.ID,
		TotalCopies:     item.TotalCopies,
		AvailableBefore: item.AvailableCopies,
		AvailableAfter:  item.AvailableCopies,
		ActiveLoans:     activeLoans,
		Drift:           item.AvailableCopies - expected,
	}
}

// Consistent reports whether recorded availability matches active loans.
func (r *LedgerReport) Consistent() bool {
	return r.Drift == 0
}

// Stats aggregates circulation counts as of one day.
type Stats struct {
	AsOf              time.Time `json:"as_of"`
	ActiveLoans       int       `json:"active_loans"`
	OverdueLoans      int       `json:"overdue_loans"`
	TotalOverdueFines float64   `json:"total_overdue_fines"`
}
