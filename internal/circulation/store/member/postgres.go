package member

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"circulation/internal/circulation/models"
	"circulation/internal/platform/postgres"
	id "circulation/pkg/domain"
	"circulation/pkg/platform/sentinel"
	"circulation/pkg/platform/tx"
)

// PostgresStore reads members from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	var (
		rawID uuid.UUID
		m     models.Member
	)
	err := tx.Executor(ctx, s.db).
		QueryRowContext(ctx, `SELECT id, full_name, active FROM members WHERE id = $1`, uuid.UUID(memberID)).
		Scan(&rawID, &m.FullName, &m.Active)
	if err != nil {
		return nil, fmt.Errorf("find member by id: %w", postgres.Classify(err))
	}
	m.ID = id.MemberID(rawID)
	return &m, nil
}

func (s *PostgresStore) Save(ctx context.Context, member *models.Member) error {
	if member == nil {
		return sentinel.ErrInvalidState
	}
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO members (id, full_name, active) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET full_name = EXCLUDED.full_name, active = EXCLUDED.active`,
		uuid.UUID(member.ID), member.FullName, member.Active,
	)
	if err != nil {
		return fmt.Errorf("save member: %w", postgres.Classify(err))
	}
	return nil
}
