// Package catalog holds the session-wide snapshot of orderable items.
// The snapshot is replaced wholesale on refresh and never mutated in
// place, so concurrent readers cannot observe a half-updated item.
// Stock mutation never happens here; that is the fulfillment
// orchestrator's job via the inventory backend.
package catalog

import (
	"context"
	"iter"
	"strings"
	"sync"

	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/models"
)

// ItemSource lists catalog items from the inventory backend.
// Satisfied by *clients.InventoryClient; narrow interface for testability.
type ItemSource interface {
	ListItems(ctx context.Context) ([]models.CatalogItem, error)
}

// Index is the read-only catalog snapshot shared across the session.
type Index struct {
	source ItemSource
	logger *logger.Logger

	mu    sync.RWMutex
	items []models.CatalogItem
}

// NewIndex creates an empty index backed by the given source.
func NewIndex(source ItemSource, log *logger.Logger) *Index {
	return &Index{source: source, logger: log}
}

// Refresh swaps the snapshot for the latest item list from the source.
// On error the previous snapshot stays in place.
func (ix *Index) Refresh(ctx context.Context) error {
	items, err := ix.source.ListItems(ctx)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	ix.items = items
	ix.mu.Unlock()

	ix.logger.Debug("catalog_refreshed", "Catalog snapshot replaced", "", map[string]interface{}{
		"item_count": len(items),
	})
	return nil
}

// Find returns the item with the given ID from the current snapshot.
func (ix *Index) Find(itemID string) (models.CatalogItem, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, item := range ix.items {
		if item.ID == itemID {
			return item, true
		}
	}
	return models.CatalogItem{}, false
}

// Len reports the number of items in the current snapshot.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.items)
}

// Filter returns a restartable sequence of items matching the optional
// category (exact) and search text (case-insensitive substring on the
// name). Empty arguments match everything. The sequence iterates over
// the snapshot captured when Filter was called; a concurrent refresh
// does not affect an iteration already in progress.
func (ix *Index) Filter(category models.Category, searchText string) iter.Seq[models.CatalogItem] {
	ix.mu.RLock()
	snapshot := ix.items
	ix.mu.RUnlock()

	needle := strings.ToLower(searchText)

	return func(yield func(models.CatalogItem) bool) {
		for _, item := range snapshot {
			if category != "" && item.Category != category {
				continue
			}
			if needle != "" && !strings.Contains(strings.ToLower(item.Name), needle) {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Categories returns the distinct categories present in the snapshot,
// in first-seen order. Used by the console to build category tabs.
func (ix *Index) Categories() []models.Category {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	seen := make(map[models.Category]bool, 4)
	var categories []models.Category
	for _, item := range ix.items {
		if !seen[item.Category] {
			seen[item.Category] = true
			categories = append(categories, item.Category)
		}
	}
	return categories
}
