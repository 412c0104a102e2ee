package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of a committed order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPickedUp  OrderStatus = "picked_up"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus validates a raw status string from a request or a
// backend response.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch OrderStatus(raw) {
	case StatusPending, StatusPickedUp, StatusReady, StatusDelivered, StatusCancelled:
		return OrderStatus(raw), nil
	default:
		return "", fmt.Errorf("unknown order status: %q", raw)
	}
}

// GuestContext identifies who an order is for and where it goes.
// Captured once when the draft is opened and carried through to every
// downstream call.
type GuestContext struct {
	RoomNumber  string `json:"room_number"`
	GuestName   string `json:"guest_name"`
	GuestPhone  string `json:"guest_phone,omitempty"`
	GRCNo       string `json:"grc_no,omitempty"`
	BookingID   string `json:"booking_id,omitempty"`
	ServiceType string `json:"service_type"`
}

// DraftLineItem is one catalog item at a chosen quantity inside a draft.
// UnitPrice and Category are captured from the catalog at add time and
// never renegotiated; later catalog refreshes do not touch them.
type DraftLineItem struct {
	ItemID     string          `json:"item_id"`
	ItemName   string          `json:"item_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Category   Category        `json:"category"`
	Notes      string          `json:"notes,omitempty"`
}

// DraftOrder is an order being composed, not yet persisted anywhere.
type DraftOrder struct {
	Context GuestContext    `json:"context"`
	Lines   []DraftLineItem `json:"lines"`
}

// PricingBreakdown is derived from a draft's line items and never stored
// on its own.
type PricingBreakdown struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	ServiceChargeAmount decimal.Decimal `json:"service_charge_amount"`
	GrandTotal          decimal.Decimal `json:"grand_total"`
}

// CommittedOrder is the console-side record of a commit: the lines that
// were routed, the authoritative breakdown, and the lifecycle status.
// The backend order systems own the persisted group orders themselves.
type CommittedOrder struct {
	Number    string           `json:"order_number"`
	Context   GuestContext     `json:"context"`
	Lines     []DraftLineItem  `json:"lines"`
	Breakdown PricingBreakdown `json:"breakdown"`
	Status    OrderStatus      `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// GenerateOrderNumber builds an order number in the HBO_YYYYMMDD_<suffix>
// format used across the journal and downstream notifications.
func GenerateOrderNumber(date time.Time, suffix string) string {
	return fmt.Sprintf("HBO_%s_%s", date.UTC().Format("20060102"), suffix)
}
