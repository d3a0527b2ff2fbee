package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderConfirmed     = "order.confirmed"
	EventOrderCancelled     = "order.cancelled"
	EventOrderCompleted     = "order.completed"
	EventOrderPaymentFailed = "order.payment_failed"
)

// Event is an order lifecycle event persisted to the outbox in the same
// transaction as the order mutation and published asynchronously.
type Event struct {
	Type    string
	OrderID uuid.UUID
	Payload []byte
}

func NewEvent(eventType string, order Order) Event {
	payload, _ := json.Marshal(map[string]interface{}{
		"order_id":       order.ID,
		"user_id":        order.UserID,
		"room_id":        order.RoomID,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
	})
	return Event{Type: eventType, OrderID: order.ID, Payload: payload}
}
