package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/roomstay/booking-orders/internal/domain"
	"github.com/roomstay/booking-orders/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuditTrail records every order lifecycle action: creation, payment session,
// webhook application, cancellation and administrative overrides. Best effort;
// a failed audit write never fails the triggering operation.
type AuditTrail struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditTrail(db *mongo.Database, logger observability.Logger) *AuditTrail {
	return &AuditTrail{
		coll:   db.Collection("order_audit"),
		logger: logger,
	}
}

type AuditEntry struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	OrderID   uuid.UUID `bson:"order_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditTrail) Record(ctx context.Context, action string, orderID uuid.UUID, data map[string]interface{}) {
	entry := AuditEntry{
		ID:        uuid.New(),
		Action:    action,
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
		Data:      bson.M(data),
	}
	if _, err := a.coll.InsertOne(ctx, entry); err != nil {
		a.logger.WithField("action", action).Error("failed to insert audit entry", err)
	}
}

func (a *AuditTrail) RecordTransition(ctx context.Context, action string, order domain.Order) {
	a.Record(ctx, action, order.ID, map[string]interface{}{
		"user_id":        order.UserID,
		"room_id":        order.RoomID,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"check_in":       order.CheckIn.Format("2006-01-02"),
		"check_out":      order.CheckOut.Format("2006-01-02"),
	})
}
