package domain

import "github.com/cockroachdb/errors"

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderPending, OrderConfirmed, OrderCompleted, OrderCancelled:
		return OrderStatus(s), nil
	}
	return "", errors.Wrapf(ErrInvalidInput, "unknown order status %q", s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentUnpaid, PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return PaymentStatus(s), nil
	}
	return "", errors.Wrapf(ErrInvalidInput, "unknown payment status %q", s)
}

// Blocking reports whether an order in this status still holds its room.
// CANCELLED and COMPLETED orders never conflict with new bookings.
func (s OrderStatus) Blocking() bool {
	return s != OrderCancelled && s != OrderCompleted
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCancelled || s == OrderCompleted
}
