package clients

import (
	"context"
	"fmt"
	"strings"

	"hotel-backoffice/internal/fulfillment"
)

// RestaurantDestination routes Restaurant-category groups to the
// kitchen order system.
type RestaurantDestination struct {
	Orders *OrdersClient
}

func (d *RestaurantDestination) Name() string { return "restaurant" }

// CreateGroupOrder translates a routing group into the kitchen order
// payload. Room-service kitchen orders use a synthetic table number
// derived from the room, e.g. room 204 becomes table R204.
func (d *RestaurantDestination) CreateGroupOrder(ctx context.Context, group fulfillment.GroupOrder) (string, error) {
	items := make([]RestaurantOrderItem, 0, len(group.Lines))
	for _, line := range group.Lines {
		items = append(items, RestaurantOrderItem{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			Price:    line.UnitPrice.StringFixed(2),
			Notes:    line.Notes,
		})
	}

	req := RestaurantOrderRequest{
		StaffName:   group.Context.ServiceType,
		PhoneNumber: group.Context.GuestPhone,
		TableNo:     roomTableNo(group.Context.RoomNumber),
		Items:       items,
		Notes:       fmt.Sprintf("%s - %s", group.Context.ServiceType, guestOrDefault(group.Context.GuestName)),
		Amount:      group.Subtotal.StringFixed(2),
		BookingID:   group.Context.BookingID,
		GRCNo:       group.Context.GRCNo,
		RoomNumber:  group.Context.RoomNumber,
		GuestName:   group.Context.GuestName,
		GuestPhone:  group.Context.GuestPhone,
	}
	return d.Orders.CreateRestaurantOrder(ctx, req)
}

// LaundryDestination routes Laundry-category groups to the laundry
// order system.
type LaundryDestination struct {
	Orders *OrdersClient
}

func (d *LaundryDestination) Name() string { return "laundry" }

func (d *LaundryDestination) CreateGroupOrder(ctx context.Context, group fulfillment.GroupOrder) (string, error) {
	items := make([]LaundryOrderItem, 0, len(group.Lines))
	for _, line := range group.Lines {
		items = append(items, LaundryOrderItem{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			Price:    line.UnitPrice.StringFixed(2),
			Notes:    line.Notes,
		})
	}

	req := LaundryOrderRequest{
		GRCNo:       group.Context.GRCNo,
		RoomNumber:  group.Context.RoomNumber,
		GuestName:   group.Context.GuestName,
		ServiceType: group.Context.ServiceType,
		Items:       items,
		Amount:      group.Subtotal.StringFixed(2),
		Notes:       fmt.Sprintf("Order %s", group.OrderNumber),
	}
	return d.Orders.CreateLaundryOrder(ctx, req)
}

// roomTableNo builds the synthetic kitchen table number for a room:
// the room's digits, zero-padded to three, prefixed with R.
func roomTableNo(roomNumber string) string {
	var digits strings.Builder
	for _, r := range roomNumber {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	padded := digits.String()
	for len(padded) < 3 {
		padded = "0" + padded
	}
	return "R" + padded
}

func guestOrDefault(name string) string {
	if name == "" {
		return "Guest"
	}
	return name
}
