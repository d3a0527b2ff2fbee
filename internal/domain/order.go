package domain

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the single mutable aggregate of the booking core. All state changes
// go through the transition methods below; the persistence layer enforces the
// Version check so concurrent transitions cannot both apply.
type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	RoomID          uuid.UUID
	CheckIn         time.Time
	CheckOut        time.Time
	TotalPrice      decimal.Decimal
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	PaymentIntentID string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewOrder(userID, roomID uuid.UUID, checkIn, checkOut time.Time, totalPrice decimal.Decimal) (Order, error) {
	if !checkOut.After(checkIn) {
		return Order{}, errors.Wrap(ErrInvalidInput, "check-out date must be after check-in date")
	}
	if totalPrice.Sign() <= 0 {
		return Order{}, errors.Wrap(ErrInvalidInput, "total price must be greater than 0")
	}
	now := time.Now().UTC()
	return Order{
		ID:            uuid.New(),
		UserID:        userID,
		RoomID:        roomID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		TotalPrice:    totalPrice,
		Status:        OrderPending,
		PaymentStatus: PaymentUnpaid,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// RequestPayment records the provider session reference and moves payment to
// PENDING. Only legal while the order is still UNPAID, so a second session for
// the same order is rejected instead of silently replacing the first.
func (o *Order) RequestPayment(intentID string) error {
	if o.PaymentStatus != PaymentUnpaid {
		return errors.Wrapf(ErrInvalidState, "payment already %s", o.PaymentStatus)
	}
	o.PaymentStatus = PaymentPending
	o.PaymentIntentID = intentID
	return nil
}

// PaymentSucceeded marks the order paid and auto-confirms a PENDING order.
// Re-applying on an already paid order is a no-op; the returned flag tells the
// caller whether anything changed so duplicate webhook deliveries produce no
// duplicate side effects.
func (o *Order) PaymentSucceeded() (bool, error) {
	if o.PaymentStatus == PaymentPaid {
		return false, nil
	}
	if o.PaymentStatus == PaymentRefunded {
		return false, errors.Wrap(ErrInvalidState, "payment already refunded")
	}
	o.PaymentStatus = PaymentPaid
	if o.Status == OrderPending {
		o.Status = OrderConfirmed
	}
	return true, nil
}

// PaymentFailed records a failed payment attempt. The order status is left
// untouched so the caller can retry with a fresh session.
func (o *Order) PaymentFailed() error {
	if o.PaymentStatus == PaymentPaid || o.PaymentStatus == PaymentRefunded {
		return errors.Wrapf(ErrInvalidState, "cannot fail payment in status %s", o.PaymentStatus)
	}
	o.PaymentStatus = PaymentFailed
	return nil
}

// Cancel moves the order to CANCELLED. A paid order is flagged REFUNDED;
// executing the refund is the payment service's job, this only records intent.
func (o *Order) Cancel() error {
	if o.Status == OrderCompleted {
		return errors.Wrap(ErrInvalidState, "cannot cancel completed order")
	}
	if o.Status == OrderCancelled {
		return errors.Wrap(ErrInvalidState, "order is already cancelled")
	}
	o.Status = OrderCancelled
	if o.PaymentStatus == PaymentPaid {
		o.PaymentStatus = PaymentRefunded
	}
	return nil
}

// Complete closes out a stay. Only CONFIRMED orders complete.
func (o *Order) Complete() error {
	if o.Status != OrderConfirmed {
		return errors.Wrapf(ErrInvalidState, "cannot complete order in status %s", o.Status)
	}
	o.Status = OrderCompleted
	return nil
}
