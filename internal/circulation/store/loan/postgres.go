package loan

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"circulation/internal/circulation/models"
	"circulation/internal/platform/postgres"
	id "circulation/pkg/domain"
	"circulation/pkg/platform/sentinel"
	"circulation/pkg/platform/tx"
)

// PostgresStore persists loans in PostgreSQL. The partial unique index
// loans_one_active_per_member_item surfaces as sentinel.ErrAlreadyUsed.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectLoan = `SELECT id, item_id, member_id, loan_date, due_date, return_date, returned, fine_amount, notes, created_at FROM loans`

func (s *PostgresStore) FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, selectLoan+` WHERE id = $1`, uuid.UUID(loanID))
	l, err := scanLoan(row)
	if err != nil {
		return nil, fmt.Errorf("find loan by id: %w", postgres.Classify(err))
	}
	return l, nil
}

func (s *PostgresStore) Save(ctx context.Context, loan *models.Loan) error {
	if loan == nil {
		return sentinel.ErrInvalidState
	}
	var returnDate sql.NullTime
	if loan.ReturnDate != nil {
		returnDate = sql.NullTime{Time: *loan.ReturnDate, Valid: true}
	}
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO loans (id, item_id, member_id, loan_date, due_date, return_date, returned, fine_amount, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			due_date = EXCLUDED.due_date,
			return_date = EXCLUDED.return_date,
			returned = EXCLUDED.returned,
			fine_amount = EXCLUDED.fine_amount,
			notes = EXCLUDED.notes`,
		uuid.UUID(loan.ID), uuid.UUID(loan.ItemID), uuid.UUID(loan.MemberID),
		loan.LoanDate, loan.DueDate, returnDate, loan.Returned, loan.FineAmount, loan.Notes, loan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save loan: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, loanID id.LoanID) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, uuid.UUID(loanID))
	if err != nil {
		return fmt.Errorf("delete loan: %w", postgres.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]*models.Loan, error) {
	return s.FindBy(ctx, models.LoanFilter{})
}

func (s *PostgresStore) FindBy(ctx context.Context, filter models.LoanFilter) ([]*models.Loan, error) {
	query, args := buildFilter(filter)
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find loans: %w", postgres.Classify(err))
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}
	return loans, nil
}

func buildFilter(filter models.LoanFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.MemberID != nil {
		add("member_id = $%d", uuid.UUID(*filter.MemberID))
	}
	if filter.ItemID != nil {
		add("item_id = $%d", uuid.UUID(*filter.ItemID))
	}
	if filter.ActiveOnly || filter.OverdueAsOf != nil {
		where = append(where, "NOT returned")
	}
	if filter.OverdueAsOf != nil {
		add("due_date < $%d", models.Day(*filter.OverdueAsOf))
	}

	query := selectLoan
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY created_at, id", args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(row scanner) (*models.Loan, error) {
	var (
		loanID, itemID, memberID uuid.UUID
		returnDate               sql.NullTime
		l                        models.Loan
	)
	err := row.Scan(&loanID, &itemID, &memberID, &l.LoanDate, &l.DueDate, &returnDate,
		&l.Returned, &l.FineAmount, &l.Notes, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.ID = id.LoanID(loanID)
	l.ItemID = id.ItemID(itemID)
	l.MemberID = id.MemberID(memberID)
	l.LoanDate = models.Day(l.LoanDate)
	l.DueDate = models.Day(l.DueDate)
	if returnDate.Valid {
		rd := models.Day(returnDate.Time)
		l.ReturnDate = &rd
	}
	return &l, nil
}

