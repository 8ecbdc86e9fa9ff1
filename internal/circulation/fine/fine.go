// Package fine computes overdue fines from calendar dates.
package fine

import (
	"math"
	"time"

	"circulation/internal/circulation/models"
)

// DefaultDailyRate is charged per calendar day late when nothing is configured.
const DefaultDailyRate = 0.50

// Calculator maps a due date and an as-of date to a fine. It holds no state
// beyond the rate and is safe for concurrent use.
type Calculator struct {
	DailyRate float64
}

// New returns a Calculator; a non-positive rate falls back to DefaultDailyRate.
func New(dailyRate float64) Calculator {
	if dailyRate <= 0 {
		dailyRate = DefaultDailyRate
	}
	return Calculator{DailyRate: dailyRate}
}

// DaysOverdue counts calendar days asOf falls after due, or 0.
func DaysOverdue(due, asOf time.Time) int64 {
	days := models.DaysBetween(due, asOf)
	if days <= 0 {
		return 0
	}
	return days
}

// ComputeFine returns days late times the daily rate, rounded to cents.
// Returning on or before the due day costs nothing.
func (c Calculator) ComputeFine(due, asOf time.Time) float64 {
	days := DaysOverdue(due, asOf)
	if days == 0 {
		return 0
	}
	return roundCents(float64(days) * c.DailyRate)
}

// CurrentFine projects what loan would owe if it were returned on asOf.
// Returned loans report their settled amount.
func (c Calculator) CurrentFine(loan *models.Loan, asOf time.Time) float64 {
	if loan.Returned {
		return loan.FineAmount
	}
	return c.ComputeFine(loan.DueDate, asOf)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
