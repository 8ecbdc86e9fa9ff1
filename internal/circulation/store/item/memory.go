package item

import (
	"context"
	"sort"
	"sync"

	"circulation/internal/circulation/models"
	id "circulation/pkg/domain"
	"circulation/pkg/platform/sentinel"
)

// InMemory keeps catalog items in a map. Callers get copies, so counts only
// change through Save.
type InMemory struct {
	mu    sync.RWMutex
	items map[id.ItemID]*models.CatalogItem
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[id.ItemID]*models.CatalogItem)}
}

func (s *InMemory) FindByID(_ context.Context, itemID id.ItemID) (*models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *item
	return &c, nil
}

// Save inserts or replaces the item.
func (s *InMemory) Save(_ context.Context, item *models.CatalogItem) error {
	if item == nil {
		return sentinel.ErrInvalidState
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *item
	s.items[item.ID] = &c
	return nil
}

// List returns every item ordered by title.
func (s *InMemory) List(_ context.Context) ([]*models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.CatalogItem, 0, len(s.items))
	for _, item := range s.items {
		c := *item
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
