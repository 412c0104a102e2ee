package catalog

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"

	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/models"
)

type fakeSource struct {
	items []models.CatalogItem
	err   error
	calls int
}

func (s *fakeSource) ListItems(ctx context.Context) ([]models.CatalogItem, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func testItems() []models.CatalogItem {
	price := decimal.NewFromInt(100)
	return []models.CatalogItem{
		{ID: "i1", Name: "Club Sandwich", Category: models.CategoryRestaurant, UnitPrice: price, Stock: 5},
		{ID: "i2", Name: "Masala Chai", Category: models.CategoryRestaurant, UnitPrice: price, Stock: 20},
		{ID: "i3", Name: "Shirt Ironing", Category: models.CategoryLaundry, UnitPrice: price, Stock: 50},
		{ID: "i4", Name: "Sandwich Platter", Category: models.CategoryRestaurant, UnitPrice: price, Stock: 0},
	}
}

func newTestIndex(t *testing.T, source *fakeSource) *Index {
	t.Helper()
	ix := NewIndex(source, logger.New("test"))
	if err := ix.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	return ix
}

func collectIDs(ix *Index, category models.Category, search string) []string {
	var ids []string
	for item := range ix.Filter(category, search) {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	source := &fakeSource{items: testItems()}
	ix := newTestIndex(t, source)

	if ix.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", ix.Len())
	}

	source.items = testItems()[:1]
	if err := ix.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if ix.Len() != 1 {
		t.Errorf("Len() after refresh = %d, want 1", ix.Len())
	}
}

func TestRefreshKeepsSnapshotOnError(t *testing.T) {
	source := &fakeSource{items: testItems()}
	ix := newTestIndex(t, source)

	source.err = errors.New("backend unavailable")
	if err := ix.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error, got nil")
	}
	if ix.Len() != 4 {
		t.Errorf("Len() after failed refresh = %d, want previous snapshot of 4", ix.Len())
	}
}

func TestFind(t *testing.T) {
	ix := newTestIndex(t, &fakeSource{items: testItems()})

	item, ok := ix.Find("i3")
	if !ok {
		t.Fatal("Find(i3) reported not found")
	}
	if item.Name != "Shirt Ironing" || item.Category != models.CategoryLaundry {
		t.Errorf("Find(i3) = %+v, want Shirt Ironing / Laundry", item)
	}

	if _, ok := ix.Find("missing"); ok {
		t.Error("Find(missing) reported found")
	}
}

func TestFilter(t *testing.T) {
	ix := newTestIndex(t, &fakeSource{items: testItems()})

	tests := []struct {
		name     string
		category models.Category
		search   string
		want     []string
	}{
		{name: "no filters returns everything", want: []string{"i1", "i2", "i3", "i4"}},
		{name: "category only", category: models.CategoryLaundry, want: []string{"i3"}},
		{name: "search is case-insensitive substring", search: "sAnDwIcH", want: []string{"i1", "i4"}},
		{name: "category and search combined", category: models.CategoryRestaurant, search: "sandwich", want: []string{"i1", "i4"}},
		{name: "no matches", category: models.CategoryLaundry, search: "sandwich", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collectIDs(ix, tt.category, tt.search)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Filter(%q, %q) = %v, want %v", tt.category, tt.search, got, tt.want)
			}
		})
	}
}

func TestFilterIsRestartable(t *testing.T) {
	ix := newTestIndex(t, &fakeSource{items: testItems()})

	seq := ix.Filter(models.CategoryRestaurant, "")

	first := func() []string {
		var ids []string
		for item := range seq {
			ids = append(ids, item.ID)
		}
		return ids
	}

	if a, b := first(), first(); !slices.Equal(a, b) {
		t.Errorf("second iteration %v differs from first %v", b, a)
	}

	// Early break must not poison later iterations.
	for range seq {
		break
	}
	if got := first(); !slices.Equal(got, []string{"i1", "i2", "i4"}) {
		t.Errorf("iteration after early break = %v, want [i1 i2 i4]", got)
	}
}

func TestCategories(t *testing.T) {
	ix := newTestIndex(t, &fakeSource{items: testItems()})

	got := ix.Categories()
	want := []models.Category{models.CategoryRestaurant, models.CategoryLaundry}
	if !slices.Equal(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
}
