package models

import "time"

// StatusUpdateMessage represents a status update notification pushed to
// the notifications fanout exchange after a staff transition.
type StatusUpdateMessage struct {
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	RoomNumber  string      `json:"room_number"`
	OldStatus   OrderStatus `json:"old_status"`
	NewStatus   OrderStatus `json:"new_status"`
	ChangedBy   string      `json:"changed_by"`
	Timestamp   time.Time   `json:"timestamp"`
}

// CreateStatusUpdateMessage creates a StatusUpdateMessage for an order
// status change.
func CreateStatusUpdateMessage(orderID, orderNumber, roomNumber string, oldStatus, newStatus OrderStatus, changedBy string) *StatusUpdateMessage {
	return &StatusUpdateMessage{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		RoomNumber:  roomNumber,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		ChangedBy:   changedBy,
		Timestamp:   time.Now().UTC(),
	}
}
