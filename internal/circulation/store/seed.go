package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"circulation/internal/circulation/models"
	id "circulation/pkg/domain"
)

// ItemSeeder is satisfied by both item store implementations.
type ItemSeeder interface {
	Save(ctx context.Context, item *models.CatalogItem) error
	List(ctx context.Context) ([]*models.CatalogItem, error)
}

type MemberSeeder interface {
	Save(ctx context.Context, member *models.Member) error
}

// seedNamespace keeps demo IDs stable across restarts so a persistent store
// is seeded at most once.
var seedNamespace = uuid.MustParse("6f1d8c1e-2b7a-4c55-9a51-0c3f4d3b9e10")

var demoItems = []struct {
	title  string
	copies int
}{
	{"The Great Gatsby", 5},
	{"To Kill a Mockingbird", 3},
	{"1984", 4},
}

var demoMembers = []string{"John Smith", "Sara Jones"}

// SeedDemoData adds a small catalog and two members when the catalog is empty.
// It reports whether anything was written.
func SeedDemoData(ctx context.Context, items ItemSeeder, members MemberSeeder) (bool, error) {
	existing, err := items.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list catalog: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	for _, d := range demoItems {
		item, err := models.NewCatalogItem(DemoItemID(d.title), d.title, d.copies)
		if err != nil {
			return false, err
		}
		if err := items.Save(ctx, item); err != nil {
			return false, fmt.Errorf("seed item %q: %w", d.title, err)
		}
	}
	for _, name := range demoMembers {
		m := &models.Member{ID: DemoMemberID(name), FullName: name, Active: true}
		if err := members.Save(ctx, m); err != nil {
			return false, fmt.Errorf("seed member %q: %w", name, err)
		}
	}
	return true, nil
}

func DemoItemID(title string) id.ItemID {
	return id.ItemID(uuid.NewSHA1(seedNamespace, []byte("item:"+title)))
}

func DemoMemberID(name string) id.MemberID {
	return id.MemberID(uuid.NewSHA1(seedNamespace, []byte("member:"+name)))
}
