package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"hotel-backoffice/internal/config"
	"hotel-backoffice/internal/fulfillment"
	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/models"
)

func backendConfig(serverURL string) config.BackendConfig {
	return config.BackendConfig{
		BaseURL:        serverURL,
		TimeoutSeconds: 5,
		Token:          "session-token",
	}
}

func TestListItemsNormalizesWireShapes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/inventory/items" {
			t.Errorf("path = %s, want /api/inventory/items", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
			t.Errorf("Authorization = %q, want bearer credential", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"_id": "a1", "itemName": "Club Sandwich", "category": "Restaurant", "sellingPrice": 250.0, "currentStock": 8},
			{"id": "a2", "name": "Shirt Ironing", "category": "Laundry", "price": 40.5, "currentStock": 30},
			{"_id": "a3", "itemName": "Mystery Item", "currentStock": -2}
		]`))
	}))
	defer server.Close()

	client := NewInventoryClient(backendConfig(server.URL), logger.New("test"))
	items, err := client.ListItems(context.Background())
	if err != nil {
		t.Fatalf("ListItems() error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	if items[0].ID != "a1" || items[0].Name != "Club Sandwich" || !items[0].UnitPrice.Equal(decimal.RequireFromString("250")) {
		t.Errorf("item 0 = %+v", items[0])
	}
	if items[1].ID != "a2" || items[1].Name != "Shirt Ironing" || !items[1].UnitPrice.Equal(decimal.RequireFromString("40.5")) {
		t.Errorf("item 1 not normalized from legacy fields: %+v", items[1])
	}
	// Missing category defaults, negative stock clamps to zero.
	if items[2].Category != models.CategoryRestaurant || items[2].Stock != 0 {
		t.Errorf("item 2 = %+v, want Restaurant category and clamped stock", items[2])
	}
}

func TestAdjustStock(t *testing.T) {
	var got adjustStockRequest
	var gotPath, gotMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewInventoryClient(backendConfig(server.URL), logger.New("test"))
	err := client.AdjustStock(context.Background(), "a1", -3, "Room Service - Room 204", "Order by Anshu")
	if err != nil {
		t.Fatalf("AdjustStock() error: %v", err)
	}

	if gotMethod != http.MethodPut || gotPath != "/api/inventory/items/a1/stock" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	want := adjustStockRequest{Quantity: -3, Type: "OUT", Reason: "Room Service - Room 204", Notes: "Order by Anshu"}
	if got != want {
		t.Errorf("body = %+v, want %+v", got, want)
	}
}

func TestAdjustStockBackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"insufficient stock"}`, http.StatusConflict)
	}))
	defer server.Close()

	client := NewInventoryClient(backendConfig(server.URL), logger.New("test"))
	if err := client.AdjustStock(context.Background(), "a1", -3, "r", "n"); err == nil {
		t.Fatal("expected error for 409 response, got nil")
	}
}

func TestRestaurantDestinationBuildsKitchenOrder(t *testing.T) {
	var got RestaurantOrderRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/restaurant-orders/create" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"_id": "ro-77"}`))
	}))
	defer server.Close()

	dest := &RestaurantDestination{Orders: NewOrdersClient(backendConfig(server.URL), logger.New("test"))}

	price := decimal.RequireFromString("250")
	group := fulfillment.GroupOrder{
		OrderNumber: "HBO_20260901_ab12cd34",
		Category:    models.CategoryRestaurant,
		Context: models.GuestContext{
			RoomNumber:  "Room 204",
			GuestName:   "Anshu",
			GuestPhone:  "9227390327",
			GRCNo:       "GRC-2053",
			ServiceType: "Room Service",
		},
		Lines: []models.DraftLineItem{
			{ItemID: "a1", ItemName: "Club Sandwich", Quantity: 2, UnitPrice: price, TotalPrice: price.Mul(decimal.NewFromInt(2)), Category: models.CategoryRestaurant},
		},
		Subtotal: decimal.RequireFromString("500"),
	}

	id, err := dest.CreateGroupOrder(context.Background(), group)
	if err != nil {
		t.Fatalf("CreateGroupOrder() error: %v", err)
	}
	if id != "ro-77" {
		t.Errorf("downstream id = %q, want ro-77", id)
	}

	if got.TableNo != "R204" {
		t.Errorf("tableNo = %q, want R204", got.TableNo)
	}
	if got.StaffName != "Room Service" || got.RoomNumber != "Room 204" || got.GuestName != "Anshu" {
		t.Errorf("context fields = %+v", got)
	}
	if got.Amount != "500.00" {
		t.Errorf("amount = %q, want 500.00", got.Amount)
	}
	if len(got.Items) != 1 || got.Items[0].ItemID != "a1" || got.Items[0].Price != "250.00" {
		t.Errorf("items = %+v", got.Items)
	}
}

func TestLaundryDestinationBuildsLaundryOrder(t *testing.T) {
	var got LaundryOrderRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/laundry/orders" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "lo-12"}`))
	}))
	defer server.Close()

	dest := &LaundryDestination{Orders: NewOrdersClient(backendConfig(server.URL), logger.New("test"))}

	price := decimal.RequireFromString("40")
	group := fulfillment.GroupOrder{
		OrderNumber: "HBO_20260901_ab12cd34",
		Category:    models.CategoryLaundry,
		Context: models.GuestContext{
			RoomNumber:  "101",
			GuestName:   "Anshu",
			GRCNo:       "GRC-2053",
			ServiceType: "Laundry",
		},
		Lines: []models.DraftLineItem{
			{ItemID: "l1", ItemName: "Shirt Ironing", Quantity: 4, UnitPrice: price, TotalPrice: price.Mul(decimal.NewFromInt(4)), Category: models.CategoryLaundry},
		},
		Subtotal: decimal.RequireFromString("160"),
	}

	id, err := dest.CreateGroupOrder(context.Background(), group)
	if err != nil {
		t.Fatalf("CreateGroupOrder() error: %v", err)
	}
	if id != "lo-12" {
		t.Errorf("downstream id = %q, want lo-12", id)
	}
	if got.GRCNo != "GRC-2053" || got.ServiceType != "Laundry" || got.Amount != "160.00" {
		t.Errorf("request = %+v", got)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewOrdersClient(backendConfig(server.URL), logger.New("test"))
	if err := client.UpdateOrderStatus(context.Background(), "o-9", models.StatusPickedUp); err != nil {
		t.Fatalf("UpdateOrderStatus() error: %v", err)
	}

	if gotMethod != http.MethodPatch || gotPath != "/api/orders/o-9/status" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if gotBody["status"] != "picked_up" {
		t.Errorf("body = %v, want status picked_up", gotBody)
	}
}

func TestRoomTableNo(t *testing.T) {
	tests := []struct {
		room string
		want string
	}{
		{"204", "R204"},
		{"Room 7", "R007"},
		{"A-1203", "R1203"},
		{"", "R000"},
	}
	for _, tt := range tests {
		if got := roomTableNo(tt.room); got != tt.want {
			t.Errorf("roomTableNo(%q) = %q, want %q", tt.room, got, tt.want)
		}
	}
}
