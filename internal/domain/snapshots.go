package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoomSnapshot is an ephemeral, possibly stale copy of a room owned by the
// room service. It is only ever returned in responses, never persisted.
type RoomSnapshot struct {
	ID            uuid.UUID
	RoomNumber    string
	Type          string
	PricePerNight decimal.Decimal
	Capacity      int
	Description   string
	Available     bool
	Location      string
	Amenities     []string
	Images        []RoomImage
}

type RoomImage struct {
	ID    string
	Name  string
	Image string
}

// UserSnapshot mirrors RoomSnapshot for the user service.
type UserSnapshot struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone string
}

// FallbackRoom is the synthetic placeholder used when the room service cannot
// be reached: marked unavailable, zero price.
func FallbackRoom(roomID uuid.UUID) RoomSnapshot {
	return RoomSnapshot{
		ID:          roomID,
		RoomNumber:  "Unknown",
		Type:        "UNKNOWN",
		Description: "Room information temporarily unavailable",
		Available:   false,
		Amenities:   []string{},
		Images:      []RoomImage{},
	}
}

func FallbackUser(userID uuid.UUID) UserSnapshot {
	return UserSnapshot{
		ID:   userID,
		Name: "Unknown User",
	}
}

// PaymentSession is the provider session reference returned when a payment is
// requested for an order.
type PaymentSession struct {
	PaymentIntentID string
	ClientSecret    string
	Status          string
}

// PaymentRequest is the payload sent to the payment service when creating a
// session.
type PaymentRequest struct {
	OrderID       uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
}
