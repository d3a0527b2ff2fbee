package booking

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/roomstay/booking-orders/internal/domain"
	"github.com/roomstay/booking-orders/internal/observability"
	"github.com/shopspring/decimal"
)

// OrderStore is the persistence contract for the coordinator. Mutations carry
// the lifecycle events that must commit atomically with the order row.
type OrderStore interface {
	ConflictCounter
	CreateOrder(ctx context.Context, order domain.Order, evt domain.Event) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	GetOrderByPaymentIntent(ctx context.Context, intentID string) (domain.Order, error)
	UpdateOrder(ctx context.Context, order domain.Order, evts ...domain.Event) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	ListOrders(ctx context.Context, offset, limit int) ([]domain.Order, int64, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
}

// PaymentGateway creates payment sessions with the external provider.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentSession, error)
}

// Auditor records lifecycle actions out of band.
type Auditor interface {
	Record(ctx context.Context, action string, orderID uuid.UUID, data map[string]interface{})
	RecordTransition(ctx context.Context, action string, order domain.Order)
}

// NopAuditor satisfies Auditor where no trail is wired (tests).
type NopAuditor struct{}

func (NopAuditor) Record(context.Context, string, uuid.UUID, map[string]interface{}) {}
func (NopAuditor) RecordTransition(context.Context, string, domain.Order)            {}

// Coordinator drives the booking saga: order creation against the
// availability check, payment session creation against the payment service,
// and webhook events against the order state machine.
type Coordinator struct {
	store    OrderStore
	payments PaymentGateway
	checker  *AvailabilityChecker
	audit    Auditor
	logger   observability.Logger
	currency string
}

func NewCoordinator(store OrderStore, payments PaymentGateway, audit Auditor, logger observability.Logger, currency string) *Coordinator {
	return &Coordinator{
		store:    store,
		payments: payments,
		checker:  NewAvailabilityChecker(store),
		audit:    audit,
		logger:   logger,
		currency: currency,
	}
}

// transitionRetries bounds optimistic-lock retries when two transitions race
// on the same order. The loser reloads and reapplies; a transition that is
// illegal after the reload fails for good.
const transitionRetries = 3

type CreateOrderRequest struct {
	UserID     uuid.UUID
	RoomID     uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
	TotalPrice decimal.Decimal
}

// CreateOrder validates the request, pre-checks availability for a fast
// rejection and persists the order. The pre-check is advisory: the store
// re-checks overlap inside the insert, so a concurrent request that slips
// past the pre-check still loses at commit with ErrRoomNotAvailable.
func (c *Coordinator) CreateOrder(ctx context.Context, req CreateOrderRequest) (domain.Order, error) {
	order, err := domain.NewOrder(req.UserID, req.RoomID, req.CheckIn, req.CheckOut, req.TotalPrice)
	if err != nil {
		return domain.Order{}, err
	}

	available, err := c.checker.IsAvailable(ctx, req.RoomID, req.CheckIn, req.CheckOut)
	if err != nil {
		return domain.Order{}, err
	}
	if !available {
		return domain.Order{}, errors.Wrap(domain.ErrRoomNotAvailable, "room is not available for selected dates")
	}

	if err := c.store.CreateOrder(ctx, order, domain.NewEvent(domain.EventOrderCreated, order)); err != nil {
		return domain.Order{}, err
	}

	c.audit.RecordTransition(ctx, domain.EventOrderCreated, order)
	c.logger.WithField("order_id", order.ID).Info("order created")
	return order, nil
}

type PaymentSessionRequest struct {
	SuccessURL    string
	CancelURL     string
	PaymentMethod string
	CustomerEmail string
	Currency      string
}

// CreatePaymentSession asks the payment service for a session and records the
// intent reference on the order. A remote failure leaves the order UNPAID and
// untouched, so the caller can simply retry.
func (c *Coordinator) CreatePaymentSession(ctx context.Context, orderID uuid.UUID, req PaymentSessionRequest) (domain.Order, domain.PaymentSession, error) {
	order, err := c.store.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, domain.PaymentSession{}, err
	}
	if order.PaymentStatus != domain.PaymentUnpaid {
		return domain.Order{}, domain.PaymentSession{}, errors.Wrapf(domain.ErrInvalidState, "payment already %s", order.PaymentStatus)
	}

	currency := req.Currency
	if currency == "" {
		currency = c.currency
	}
	session, err := c.payments.CreatePayment(ctx, domain.PaymentRequest{
		OrderID:       order.ID,
		Amount:        order.TotalPrice,
		Currency:      currency,
		PaymentMethod: req.PaymentMethod,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		return domain.Order{}, domain.PaymentSession{}, err
	}

	if err := order.RequestPayment(session.PaymentIntentID); err != nil {
		return domain.Order{}, domain.PaymentSession{}, err
	}
	if err := c.store.UpdateOrder(ctx, order); err != nil {
		return domain.Order{}, domain.PaymentSession{}, err
	}

	c.audit.Record(ctx, "order.payment_session", order.ID, map[string]interface{}{
		"payment_intent_id": session.PaymentIntentID,
	})
	return order, session, nil
}

const (
	WebhookPaymentSucceeded = "payment_intent.succeeded"
	WebhookPaymentFailed    = "payment_intent.payment_failed"
)

// HandlePaymentWebhook applies a provider event to the order it references.
// Unknown event types are logged and ignored. An intent id that matches no
// order is audited and dropped; the provider redelivers, and no ordering
// guarantee is assumed between webhook delivery and the session response.
func (c *Coordinator) HandlePaymentWebhook(ctx context.Context, eventType, intentID string) error {
	switch eventType {
	case WebhookPaymentSucceeded, WebhookPaymentFailed:
	default:
		c.logger.WithField("type", eventType).Warn("ignoring unknown payment webhook event")
		return nil
	}

	// Orders without a payment session carry an empty intent id, so an empty
	// id in a webhook body must never match one of them.
	if intentID == "" {
		c.logger.WithField("type", eventType).Warn("payment webhook without intent id dropped")
		c.audit.Record(ctx, "webhook.unmatched", uuid.Nil, map[string]interface{}{
			"payment_intent_id": intentID,
			"type":              eventType,
		})
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < transitionRetries; attempt++ {
		order, err := c.store.GetOrderByPaymentIntent(ctx, intentID)
		if errors.Is(err, domain.ErrNotFound) {
			c.logger.WithField("payment_intent_id", intentID).Warn("webhook for unknown payment intent dropped")
			c.audit.Record(ctx, "webhook.unmatched", uuid.Nil, map[string]interface{}{
				"payment_intent_id": intentID,
				"type":              eventType,
			})
			return nil
		}
		if err != nil {
			return err
		}

		var evts []domain.Event
		if eventType == WebhookPaymentSucceeded {
			changed, err := order.PaymentSucceeded()
			if err != nil {
				return err
			}
			if !changed {
				// Duplicate delivery; nothing to persist, no side effects.
				return nil
			}
			if order.Status == domain.OrderConfirmed {
				evts = append(evts, domain.NewEvent(domain.EventOrderConfirmed, order))
			}
		} else {
			if err := order.PaymentFailed(); err != nil {
				return err
			}
			evts = append(evts, domain.NewEvent(domain.EventOrderPaymentFailed, order))
		}

		err = c.store.UpdateOrder(ctx, order, evts...)
		if err == nil {
			c.audit.RecordTransition(ctx, "webhook."+eventType, order)
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) && !errors.Is(err, domain.ErrSerializationFailure) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// Cancel rejects terminal orders and flags paid ones for refund.
func (c *Coordinator) Cancel(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var lastErr error
	for attempt := 0; attempt < transitionRetries; attempt++ {
		order, err := c.store.GetOrder(ctx, orderID)
		if err != nil {
			return domain.Order{}, err
		}
		if err := order.Cancel(); err != nil {
			return domain.Order{}, err
		}

		err = c.store.UpdateOrder(ctx, order, domain.NewEvent(domain.EventOrderCancelled, order))
		if err == nil {
			c.audit.RecordTransition(ctx, domain.EventOrderCancelled, order)
			c.logger.WithField("order_id", order.ID).Info("order cancelled")
			return order, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) && !errors.Is(err, domain.ErrSerializationFailure) {
			return domain.Order{}, err
		}
		lastErr = err
	}
	return domain.Order{}, lastErr
}

// UpdateOrder rewrites the booking details. When the room or the dates
// change, availability is re-checked with the order's own reservation
// excluded so an order can always keep or shrink its current interval.
func (c *Coordinator) UpdateOrder(ctx context.Context, orderID uuid.UUID, req CreateOrderRequest) (domain.Order, error) {
	order, err := c.store.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !req.CheckOut.After(req.CheckIn) {
		return domain.Order{}, errors.Wrap(domain.ErrInvalidInput, "check-out date must be after check-in date")
	}
	if req.TotalPrice.Sign() <= 0 {
		return domain.Order{}, errors.Wrap(domain.ErrInvalidInput, "total price must be positive")
	}

	moved := order.RoomID != req.RoomID || !order.CheckIn.Equal(req.CheckIn) || !order.CheckOut.Equal(req.CheckOut)
	if moved {
		count, err := c.checker.countExcluding(ctx, req.RoomID, req.CheckIn, req.CheckOut, order.ID)
		if err != nil {
			return domain.Order{}, err
		}
		if count > 0 {
			return domain.Order{}, errors.Wrap(domain.ErrRoomNotAvailable, "room is not available for selected dates")
		}
	}

	order.UserID = req.UserID
	order.RoomID = req.RoomID
	order.CheckIn = req.CheckIn
	order.CheckOut = req.CheckOut
	order.TotalPrice = req.TotalPrice

	if err := c.store.UpdateOrder(ctx, order); err != nil {
		return domain.Order{}, err
	}
	c.audit.RecordTransition(ctx, "order.updated", order)
	return order, nil
}

// UpdateStatus is the administrative override: it bypasses transition rules
// but still rejects unknown status values, and every override is audited.
func (c *Coordinator) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	order, err := c.store.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	previous := order.Status
	order.Status = status
	if err := c.store.UpdateOrder(ctx, order); err != nil {
		return domain.Order{}, err
	}
	c.audit.Record(ctx, "order.status_override", order.ID, map[string]interface{}{
		"from": previous,
		"to":   status,
	})
	return order, nil
}

// Delete is the administrative physical delete, distinct from cancellation.
func (c *Coordinator) Delete(ctx context.Context, orderID uuid.UUID) error {
	if err := c.store.DeleteOrder(ctx, orderID); err != nil {
		return err
	}
	c.audit.Record(ctx, "order.deleted", orderID, nil)
	return nil
}

func (c *Coordinator) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return c.store.GetOrder(ctx, orderID)
}

func (c *Coordinator) ListOrders(ctx context.Context, page, size int) ([]domain.Order, int64, error) {
	return c.store.ListOrders(ctx, page*size, size)
}

func (c *Coordinator) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	return c.store.ListOrdersByUser(ctx, userID)
}

func (c *Coordinator) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return c.store.ListOrdersByStatus(ctx, status)
}

// IsRoomAvailable is the read-only pre-check exposed to the booking UI. Same
// algorithm as order creation, so UI and backend cannot disagree.
func (c *Coordinator) IsRoomAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (bool, error) {
	return c.checker.IsAvailable(ctx, roomID, checkIn, checkOut)
}
