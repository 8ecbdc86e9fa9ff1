package handler

import (
	"time"

	"circulation/internal/circulation/fine"
	"circulation/internal/circulation/models"
)

// LoanResponse is a loan plus its overdue projection as of the request day.
type LoanResponse struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"item_id"`
	MemberID    string    `json:"member_id"`
	LoanDate    string    `json:"loan_date"`
	DueDate     string    `json:"due_date"`
	ReturnDate  *string   `json:"return_date,omitempty"`
	Returned    bool      `json:"returned"`
	Status      string    `json:"status"`
	FineAmount  float64   `json:"fine_amount"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Overdue     bool      `json:"overdue"`
	DaysOverdue int64     `json:"days_overdue"`
	CurrentFine float64   `json:"current_fine"`
}

type LoanListResponse struct {
	Loans []LoanResponse `json:"loans"`
	Count int            `json:"count"`
}

type ItemResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
	Borrowed        int    `json:"borrowed"`
	Active          bool   `json:"active"`
}

type StatsResponse struct {
	AsOf              string  `json:"as_of"`
	ActiveLoans       int     `json:"active_loans"`
	OverdueLoans      int     `json:"overdue_loans"`
	TotalOverdueFines float64 `json:"total_overdue_fines"`
}

func toLoanResponse(l *models.Loan, fines fine.Calculator, asOf time.Time) LoanResponse {
	resp := LoanResponse{
		ID:          l.ID.String(),
		ItemID:      l.ItemID.String(),
		MemberID:    l.MemberID.String(),
		LoanDate:    models.FormatDate(l.LoanDate),
		DueDate:     models.FormatDate(l.DueDate),
		Returned:    l.Returned,
		Status:      string(l.Status()),
		FineAmount:  l.FineAmount,
		Notes:       l.Notes,
		CreatedAt:   l.CreatedAt,
		Overdue:     l.IsOverdue(asOf),
		DaysOverdue: l.DaysOverdue(asOf),
		CurrentFine: fines.CurrentFine(l, asOf),
	}
	if l.ReturnDate != nil {
		rd := models.FormatDate(*l.ReturnDate)
		resp.ReturnDate = &rd
	}
	return resp
}

func toLoanListResponse(loans []*models.Loan, fines fine.Calculator, asOf time.Time) LoanListResponse {
	out := make([]LoanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, toLoanResponse(l, fines, asOf))
	}
	return LoanListResponse{Loans: out, Count: len(out)}
}

func toItemResponse(item *models.CatalogItem) ItemResponse {
	return ItemResponse{
		ID:              item.ID.String(),
		Title:           item.Title,
		TotalCopies:     item.TotalCopies,
		AvailableCopies: item.AvailableCopies,
		Borrowed:        item.Borrowed(),
		Active:          item.Active,
	}
}

func toStatsResponse(s *models.Stats) StatsResponse {
	return StatsResponse{
		AsOf:              models.FormatDate(s.AsOf),
		ActiveLoans:       s.ActiveLoans,
		OverdueLoans:      s.OverdueLoans,
		TotalOverdueFines: s.TotalOverdueFines,
	}
}
