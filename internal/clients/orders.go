package clients

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"hotel-backoffice/internal/config"
	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/models"
)

// OrdersClient talks to the backend order systems: restaurant orders,
// laundry orders, and the shared order read/patch endpoints the
// surrounding screens use. The backend stays the system of record for
// order state.
type OrdersClient struct {
	api api
}

// NewOrdersClient creates a client for the configured backend.
func NewOrdersClient(cfg config.BackendConfig, log *logger.Logger) *OrdersClient {
	return &OrdersClient{api: newAPI(cfg, log)}
}

// RestaurantOrderItem is one line in a restaurant (KOT) order.
type RestaurantOrderItem struct {
	ItemID   string  `json:"itemId"`
	Quantity int     `json:"quantity"`
	Price    string  `json:"price"`
	Notes    string  `json:"specialInstructions,omitempty"`
}

// RestaurantOrderRequest is the kitchen order payload.
type RestaurantOrderRequest struct {
	StaffName   string                `json:"staffName"`
	PhoneNumber string                `json:"phoneNumber"`
	TableNo     string                `json:"tableNo"`
	Items       []RestaurantOrderItem `json:"items"`
	Notes       string                `json:"notes"`
	Amount      string                `json:"amount"`
	BookingID   string                `json:"bookingId,omitempty"`
	GRCNo       string                `json:"grcNo,omitempty"`
	RoomNumber  string                `json:"roomNumber"`
	GuestName   string                `json:"guestName"`
	GuestPhone  string                `json:"guestPhone,omitempty"`
}

// LaundryOrderItem is one line in a laundry order.
type LaundryOrderItem struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Notes    string `json:"notes,omitempty"`
}

// LaundryOrderRequest is the laundry order payload.
type LaundryOrderRequest struct {
	GRCNo       string             `json:"grcNo,omitempty"`
	RoomNumber  string             `json:"roomNumber"`
	GuestName   string             `json:"requestedByName"`
	ServiceType string             `json:"serviceType"`
	Items       []LaundryOrderItem `json:"items"`
	Amount      string             `json:"totalAmount"`
	Notes       string             `json:"notes,omitempty"`
}

// createdOrder covers both backend generations of the created-order
// response shape.
type createdOrder struct {
	ID    string `json:"_id"`
	AltID string `json:"id"`
}

func (c createdOrder) orderID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.AltID
}

// CreateRestaurantOrder creates a kitchen order and returns its backend ID.
func (c *OrdersClient) CreateRestaurantOrder(ctx context.Context, req RestaurantOrderRequest) (string, error) {
	var created createdOrder
	if err := c.api.doJSON(ctx, "POST", "/api/restaurant-orders/create", req, &created); err != nil {
		return "", err
	}
	return created.orderID(), nil
}

// CreateLaundryOrder creates a laundry order and returns its backend ID.
func (c *OrdersClient) CreateLaundryOrder(ctx context.Context, req LaundryOrderRequest) (string, error) {
	var created createdOrder
	if err := c.api.doJSON(ctx, "POST", "/api/laundry/orders", req, &created); err != nil {
		return "", err
	}
	return created.orderID(), nil
}

// BackendOrder is the read shape of a persisted order.
type BackendOrder struct {
	ID          string             `json:"_id"`
	Number      string             `json:"orderNumber"`
	RoomNumber  string             `json:"roomNumber"`
	GuestName   string             `json:"guestName"`
	ServiceType string             `json:"serviceType"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount string             `json:"totalAmount"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// GetOrder fetches one order by backend ID.
func (c *OrdersClient) GetOrder(ctx context.Context, orderID string) (*BackendOrder, error) {
	var order BackendOrder
	if err := c.api.doJSON(ctx, "GET", "/api/orders/"+url.PathEscape(orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders fetches orders, optionally filtered by status and room.
func (c *OrdersClient) ListOrders(ctx context.Context, status models.OrderStatus, roomNumber string) ([]BackendOrder, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}
	if roomNumber != "" {
		query.Set("roomNumber", roomNumber)
	}

	path := "/api/orders"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var orders []BackendOrder
	if err := c.api.doJSON(ctx, "GET", path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus patches an order's status. The backend runs its own
// transition validation and its verdict is final.
func (c *OrdersClient) UpdateOrderStatus(ctx context.Context, orderID string, newStatus models.OrderStatus) error {
	body := map[string]string{"status": string(newStatus)}
	return c.api.doJSON(ctx, "PATCH", fmt.Sprintf("/api/orders/%s/status", url.PathEscape(orderID)), body, nil)
}

// DeleteOrder removes an order.
func (c *OrdersClient) DeleteOrder(ctx context.Context, orderID string) error {
	return c.api.doJSON(ctx, "DELETE", "/api/orders/"+url.PathEscape(orderID), nil, nil)
}
