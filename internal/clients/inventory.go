package clients

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"hotel-backoffice/internal/config"
	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/models"
)

// InventoryClient talks to the inventory backend: listing catalog items
// and adjusting stock. The backend is authoritative on stock; the
// console only holds advisory snapshots of what it returns here.
type InventoryClient struct {
	api api
}

// NewInventoryClient creates a client for the configured backend.
func NewInventoryClient(cfg config.BackendConfig, log *logger.Logger) *InventoryClient {
	return &InventoryClient{api: newAPI(cfg, log)}
}

// inventoryItem mirrors the wire shape of the inventory API, which has
// grown two generations of field names. Older records use name/price,
// newer ones itemName/sellingPrice; both appear in live data.
type inventoryItem struct {
	ID           string   `json:"_id"`
	AltID        string   `json:"id"`
	ItemName     string   `json:"itemName"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	SellingPrice *float64 `json:"sellingPrice"`
	Price        *float64 `json:"price"`
	CurrentStock int      `json:"currentStock"`
}

func (w inventoryItem) toCatalogItem() models.CatalogItem {
	item := models.CatalogItem{
		ID:       w.ID,
		Name:     w.ItemName,
		Category: models.Category(w.Category),
		Stock:    w.CurrentStock,
	}
	if item.ID == "" {
		item.ID = w.AltID
	}
	if item.Name == "" {
		item.Name = w.Name
	}
	if item.Category == "" {
		item.Category = models.CategoryRestaurant
	}

	price := 0.0
	switch {
	case w.SellingPrice != nil:
		price = *w.SellingPrice
	case w.Price != nil:
		price = *w.Price
	}
	item.UnitPrice = decimal.NewFromFloat(price).Round(2)
	if item.UnitPrice.IsNegative() {
		item.UnitPrice = decimal.Zero
	}
	if item.Stock < 0 {
		item.Stock = 0
	}
	return item
}

// ListItems fetches the full orderable item list.
func (c *InventoryClient) ListItems(ctx context.Context) ([]models.CatalogItem, error) {
	var wire []inventoryItem
	if err := c.api.doJSON(ctx, "GET", "/api/inventory/items", nil, &wire); err != nil {
		return nil, err
	}

	items := make([]models.CatalogItem, 0, len(wire))
	for _, w := range wire {
		items = append(items, w.toCatalogItem())
	}
	return items, nil
}

// adjustStockRequest is the stock-delta payload. Type is OUT for
// deductions and IN for replenishments, matching the backend's movement
// ledger.
type adjustStockRequest struct {
	Quantity int    `json:"quantity"`
	Type     string `json:"type"`
	Reason   string `json:"reason"`
	Notes    string `json:"notes"`
}

// AdjustStock applies a signed stock delta to one item, tagged with a
// reason identifying the order context.
func (c *InventoryClient) AdjustStock(ctx context.Context, itemID string, delta int, reason, notes string) error {
	movement := "IN"
	if delta < 0 {
		movement = "OUT"
	}

	req := adjustStockRequest{
		Quantity: delta,
		Type:     movement,
		Reason:   reason,
		Notes:    notes,
	}
	return c.api.doJSON(ctx, "PUT", fmt.Sprintf("/api/inventory/items/%s/stock", itemID), req, nil)
}
