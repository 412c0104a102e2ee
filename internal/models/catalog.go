package models

import "github.com/shopspring/decimal"

// Category classifies a catalog item and decides which downstream order
// system its line items are routed to at commit time. The set is open:
// the inventory backend may introduce new categories at any time.
type Category string

const (
	CategoryRestaurant Category = "Restaurant"
	CategoryLaundry    Category = "Laundry"
	CategoryMinibar    Category = "Minibar"
)

// CatalogItem is a read-only snapshot of one orderable inventory item.
// Stock is advisory: the authoritative count lives in the inventory
// backend and may have moved since the snapshot was taken.
type CatalogItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  Category        `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int             `json:"stock"`
}
