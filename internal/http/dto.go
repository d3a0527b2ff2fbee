package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/roomstay/booking-orders/internal/booking"
	"github.com/roomstay/booking-orders/internal/domain"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type orderResponse struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	RoomID        uuid.UUID       `json:"roomId"`
	CheckIn       string          `json:"checkIn"`
	CheckOut      string          `json:"checkOut"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		RoomID:        o.RoomID,
		CheckIn:       o.CheckIn.Format(dateLayout),
		CheckOut:      o.CheckOut.Format(dateLayout),
		TotalPrice:    o.TotalPrice,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

type roomResponse struct {
	ID            uuid.UUID       `json:"id"`
	RoomNumber    string          `json:"roomNumber"`
	Type          string          `json:"type"`
	PricePerNight decimal.Decimal `json:"pricePerNight"`
	Capacity      int             `json:"capacity"`
	Description   string          `json:"description"`
	IsAvailable   bool            `json:"isAvailable"`
	Location      string          `json:"location"`
	Amenities     []string        `json:"amenities"`
}

func toRoomResponse(r domain.RoomSnapshot) roomResponse {
	return roomResponse{
		ID:            r.ID,
		RoomNumber:    r.RoomNumber,
		Type:          r.Type,
		PricePerNight: r.PricePerNight,
		Capacity:      r.Capacity,
		Description:   r.Description,
		IsAvailable:   r.Available,
		Location:      r.Location,
		Amenities:     r.Amenities,
	}
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`
}

type enrichedOrderResponse struct {
	orderResponse
	Room roomResponse `json:"room"`
	User userResponse `json:"user"`
}

func toEnrichedResponse(e booking.EnrichedOrder) enrichedOrderResponse {
	return enrichedOrderResponse{
		orderResponse: toOrderResponse(e.Order),
		Room:          toRoomResponse(e.Room),
		User:          userResponse{ID: e.User.ID, Name: e.User.Name, Email: e.User.Email, Phone: e.User.Phone},
	}
}

type pageResponse struct {
	Content    []enrichedOrderResponse `json:"content"`
	Page       int                     `json:"page"`
	Size       int                     `json:"size"`
	TotalItems int64                   `json:"totalItems"`
	TotalPages int                     `json:"totalPages"`
	First      bool                    `json:"first"`
	Last       bool                    `json:"last"`
}

func toPageResponse(p booking.Page) pageResponse {
	content := make([]enrichedOrderResponse, len(p.Content))
	for i, e := range p.Content {
		content[i] = toEnrichedResponse(e)
	}
	return pageResponse{
		Content:    content,
		Page:       p.PageNumber,
		Size:       p.Size,
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages,
		First:      p.First,
		Last:       p.Last,
	}
}
