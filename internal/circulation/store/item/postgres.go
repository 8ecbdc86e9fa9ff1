package item

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

// PostgresStore persists catalog items in PostgreSQL. Queries join the
// transaction carried in ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed item store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectItem = `SELECT id, title, total_copies, available_copies, active FROM catalog_items`

func (s *PostgresStore) FindByID(ctx context.Context, itemID id.ItemID) (*models.CatalogItem, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, selectItem+` WHERE id = $1`, uuid.UUID(itemID))
	item, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("find item by id: %w", postgres.Classify(err))
	}
	return item, nil
}

// LockForUpdate takes the row lock on the item for the rest of the
// transaction in ctx. Without a transaction it only checks existence.
func (s *PostgresStore) LockForUpdate(ctx context.Context, itemID id.ItemID) error {
	var locked uuid.UUID
	err := tx.Executor(ctx, s.db).
		QueryRowContext(ctx, `SELECT id FROM catalog_items WHERE id = $1 FOR UPDATE`, uuid.UUID(itemID)).
		Scan(&locked)
	if err != nil {
		return fmt.Errorf("lock item: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, item *models.CatalogItem) error {
	if item == nil {
		return sentinel.ErrInvalidState
	}
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO catalog_items (id, title, total_copies, available_copies, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			total_copies = EXCLUDED.total_copies,
			available_copies = EXCLUDED.available_copies,
			active = EXCLUDED.active,
			updated_at = now()`,
		uuid.UUID(item.ID), item.Title, item.TotalCopies, item.AvailableCopies, item.Active,
	)
	if err != nil {
		return fmt.Errorf("save item: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.CatalogItem, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, selectItem+` ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", postgres.Classify(err))
	}
	defer rows.Close()

	var items []*models.CatalogItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*models.CatalogItem, error) {
	var (
		itemID uuid.UUID
		item   models.CatalogItem
	)
	if err := row.Scan(&itemID, &item.Title, &item.TotalCopies, &item.AvailableCopies, &item.Active); err != nil {
		return nil, err
	}
	item.ID = id.ItemID(itemID)
	return &item, nil
}
