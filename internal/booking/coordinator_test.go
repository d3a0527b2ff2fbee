package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/roomstay/booking-orders/internal/booking"
	"github.com/roomstay/booking-orders/internal/domain"
	"github.com/roomstay/booking-orders/internal/observability"
	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newCoordinator(store *memStore, gw *fakeGateway) *booking.Coordinator {
	return booking.NewCoordinator(store, gw, booking.NopAuditor{}, observability.NewLogger(), "usd")
}

func createReq(roomID uuid.UUID, in, out time.Time) booking.CreateOrderRequest {
	return booking.CreateOrderRequest{
		UserID:     uuid.New(),
		RoomID:     roomID,
		CheckIn:    in,
		CheckOut:   out,
		TotalPrice: decimal.NewFromInt(400),
	}
}

func TestCoordinator_CreateOrder(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	c := newCoordinator(store, &fakeGateway{})
	roomID := uuid.New()

	order, err := c.CreateOrder(ctx, createReq(roomID, date(2026, 3, 1), date(2026, 3, 5)))
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != domain.OrderPending || order.PaymentStatus != domain.PaymentUnpaid {
		t.Errorf("expected PENDING/UNPAID, got %s/%s", order.Status, order.PaymentStatus)
	}
	if types := store.eventTypes(); len(types) != 1 || types[0] != domain.EventOrderCreated {
		t.Errorf("expected one order.created event, got %v", types)
	}

	// Overlapping interval on the same room is rejected.
	_, err = c.CreateOrder(ctx, createReq(roomID, date(2026, 3, 3), date(2026, 3, 7)))
	if !errors.Is(err, domain.ErrRoomNotAvailable) {
		t.Errorf("overlap: expected ErrRoomNotAvailable, got %v", err)
	}

	// Back-to-back is legal: check-out day equals check-in day.
	if _, err := c.CreateOrder(ctx, createReq(roomID, date(2026, 3, 5), date(2026, 3, 9))); err != nil {
		t.Errorf("back-to-back: expected success, got %v", err)
	}

	// A different room is unaffected.
	if _, err := c.CreateOrder(ctx, createReq(uuid.New(), date(2026, 3, 1), date(2026, 3, 5))); err != nil {
		t.Errorf("other room: expected success, got %v", err)
	}

	_, err = c.CreateOrder(ctx, createReq(roomID, date(2026, 3, 20), date(2026, 3, 20)))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("zero nights: expected ErrInvalidInput, got %v", err)
	}
}

func TestCoordinator_CancelledOrderFreesRoom(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	c := newCoordinator(store, &fakeGateway{})
	roomID := uuid.New()

	order, err := c.CreateOrder(ctx, createReq(roomID, date(2026, 3, 1), date(2026, 3, 5)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Cancel(ctx, order.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := c.CreateOrder(ctx, createReq(roomID, date(2026, 3, 1), date(2026, 3, 5))); err != nil {
		t.Errorf("cancelled order must not block rebooking, got %v", err)
	}
}

func TestCoordinator_CreatePaymentSession(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gw := &fakeGateway{session: domain.PaymentSession{
		PaymentIntentID: "pi_123",
		ClientSecret:    "secret",
		Status:          "requires_payment_method",
	}}
	c := newCoordinator(store, gw)

	order, err := c.CreateOrder(ctx, createReq(uuid.New(), date(2026, 3, 1), date(2026, 3, 5)))
	if err != nil {
		t.Fatal(err)
	}

	updated, session, err := c.CreatePaymentSession(ctx, order.ID, booking.PaymentSessionRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if session.PaymentIntentID != "pi_123" {
		t.Errorf("expected pi_123, got %s", session.PaymentIntentID)
	}
	if updated.PaymentStatus != domain.PaymentPending {
		t.Errorf("expected payment PENDING, got %s", updated.PaymentStatus)
	}

	// A second session for the same order is rejected.
	_, _, err = c.CreatePaymentSession(ctx, order.ID, booking.PaymentSessionRequest{})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second session: expected ErrInvalidState, got %v", err)
	}
}

func TestCoordinator_PaymentSessionFailureLeavesOrderUntouched(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gw := &fakeGateway{err: errors.Wrap(domain.ErrDependencyUnavailable, "payment service timeout")}
	c := newCoordinator(store, gw)

	order, err := c.CreateOrder(ctx, createReq(uuid.New(), date(2026, 3, 1), date(2026, 3, 5)))
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = c.CreatePaymentSession(ctx, order.ID, booking.PaymentSessionRequest{})
	if !errors.Is(err, domain.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}

	reloaded, err := c.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.PaymentStatus != domain.PaymentUnpaid || reloaded.PaymentIntentID != "" {
		t.Errorf("failed session must leave order UNPAID, got %s/%q",
			reloaded.PaymentStatus, reloaded.PaymentIntentID)
	}

	// The order is retryable once the dependency recovers.
	gw.err = nil
	gw.session = domain.PaymentSession{PaymentIntentID: "pi_retry"}
	if _, _, err := c.CreatePaymentSession(ctx, order.ID, booking.PaymentSessionRequest{}); err != nil {
		t.Errorf("retry after recovery: expected success, got %v", err)
	}
}

func sessionOrder(t *testing.T, c *booking.Coordinator, intentID string) domain.Order {
	t.Helper()
	ctx := context.Background()
	order, err := c.CreateOrder(ctx, createReq(uuid.New(), date(2026, 3, 1), date(2026, 3, 5)))
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = c.CreatePaymentSession(ctx, order.ID, booking.PaymentSessionRequest{})
	if err != nil {
		t.Fatal(err)
	}
	order, err = c.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if order.PaymentIntentID != intentID {
		t.Fatalf("expected intent %s, got %s", intentID, order.PaymentIntentID)
	}
	return order
}

func TestCoordinator_WebhookSucceeded(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gw := &fakeGateway{session: domain.PaymentSession{PaymentIntentID: "pi_123"}}
	c := newCoordinator(store, gw)
	order := sessionOrder(t, c, "pi_123")

	if err := c.HandlePaymentWebhook(ctx, booking.WebhookPaymentSucceeded, "pi_123"); err != nil {
		t.Fatal(err)
	}
	reloaded, err := c.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.PaymentStatus != domain.PaymentPaid || reloaded.Status != domain.OrderConfirmed {
		t.Fatalf("expected PAID/CONFIRMED, got %s/%s", reloaded.PaymentStatus, reloaded.Status)
	}

	events := len(store.eventTypes())

	// Duplicate delivery: no state change, no new events.
	if err := c.HandlePaymentWebhook(ctx, booking.WebhookPaymentSucceeded, "pi_123"); err != nil {
		t.Fatal(err)
	}
	if got := len(store.eventTypes()); got != events {
		t.Errorf("duplicate webhook appended events: %d -> %d", events, got)
	}
}

func TestCoordinator_WebhookFailed(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gw := &fakeGateway{session: domain.PaymentSession{PaymentIntentID: "pi_123"}}
	c := newCoordinator(store, gw)
	order := sessionOrder(t, c, "pi_123")

	if err := c.HandlePaymentWebhook(ctx, booking.WebhookPaymentFailed, "pi_123"); err != nil {
		t.Fatal(err)
	}
	reloaded, err := c.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.PaymentStatus != domain.PaymentFailed {
		t.Errorf("expected FAILED, got %s", reloaded.PaymentStatus)
	}
	if reloaded.Status != domain.OrderPending {
		t.Errorf("failed payment must not touch order status, got %s", reloaded.Status)
	}
}

func TestCoordinator_WebhookIgnoresUnknowns(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	c := newCoordinator(store, &fakeGateway{})

	// Unknown event type: acknowledged so the provider stops redelivering.
	if err := c.HandlePaymentWebhook(ctx, "charge.refunded", "pi_123"); err != nil {
		t.Errorf("unknown type: expected nil, got %v", err)
	}

	// Known type, unmatched intent: dropped, the provider redelivers and the
	// match succeeds once the session response lands.
	if err := c.HandlePaymentWebhook(ctx, booking.WebhookPaymentSucceeded, "pi_unseen"); err != nil {
		t.Errorf("unmatched intent: expected nil, got %v", err)
	}

	// Orders without a payment session store an empty intent id, so an empty
	// id in the webhook body must be dropped rather than matched against one
	// of them and confirmed without any payment.
	order, err := c.CreateOrder(ctx, createReq(uuid.New(), date(2026, 3, 1), date(2026, 3, 5)))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.HandlePaymentWebhook(ctx, booking.WebhookPaymentSucceeded, ""); err != nil {
		t.Errorf("empty intent: expected nil, got %v", err)
	}
	reloaded, err := store.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Status != domain.OrderPending || reloaded.PaymentStatus != domain.PaymentUnpaid {
		t.Errorf("empty-intent webhook touched the order: got %s/%s", reloaded.Status, reloaded.PaymentStatus)
	}
}

func TestCoordinator_Cancel(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gw := &fakeGateway{session: domain.PaymentSession{PaymentIntentID: "pi_123"}}
	c := newCoordinator(store, gw)
	order := sessionOrder(t, c, "pi_123")

	if err := c.HandlePaymentWebhook(ctx, booking.WebhookPaymentSucceeded, "pi_123"); err != nil {
		t.Fatal(err)
	}

	cancelled, err := c.Cancel(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cancelled.Status != domain.OrderCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.PaymentStatus != domain.PaymentRefunded {
		t.Errorf("paid cancel must flag REFUNDED, got %s", cancelled.PaymentStatus)
	}

	_, err = c.Cancel(ctx, order.ID)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("double cancel: expected ErrInvalidState, got %v", err)
	}

	_, err = c.Cancel(ctx, uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown order: expected ErrNotFound, got %v", err)
	}
}

func TestCoordinator_UpdateOrder(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	c := newCoordinator(store, &fakeGateway{})
	roomID := uuid.New()

	order, err := c.CreateOrder(ctx, createReq(roomID, date(2026, 3, 1), date(2026, 3, 5)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateOrder(ctx, createReq(roomID, date(2026, 3, 10), date(2026, 3, 14))); err != nil {
		t.Fatal(err)
	}

	// Moving onto another order's dates is rejected.
	req := createReq(roomID, date(2026, 3, 11), date(2026, 3, 13))
	req.UserID = order.UserID
	_, err = c.UpdateOrder(ctx, order.ID, req)
	if !errors.Is(err, domain.ErrRoomNotAvailable) {
		t.Errorf("move onto occupied dates: expected ErrRoomNotAvailable, got %v", err)
	}

	// Keeping its own interval is always legal: the order's reservation is
	// excluded from the conflict count.
	req = createReq(roomID, date(2026, 3, 1), date(2026, 3, 5))
	req.UserID = order.UserID
	if _, err := c.UpdateOrder(ctx, order.ID, req); err != nil {
		t.Errorf("same interval: expected success, got %v", err)
	}

	// Shrinking within its own interval is legal too.
	req = createReq(roomID, date(2026, 3, 2), date(2026, 3, 4))
	req.UserID = order.UserID
	updated, err := c.UpdateOrder(ctx, order.ID, req)
	if err != nil {
		t.Fatal(err)
	}
	if !updated.CheckIn.Equal(date(2026, 3, 2)) || !updated.CheckOut.Equal(date(2026, 3, 4)) {
		t.Errorf("expected shrunk interval, got %v..%v", updated.CheckIn, updated.CheckOut)
	}

	// The same price rule as creation: an update cannot zero the price out.
	req = createReq(roomID, date(2026, 3, 2), date(2026, 3, 4))
	req.UserID = order.UserID
	req.TotalPrice = decimal.Zero
	if _, err := c.UpdateOrder(ctx, order.ID, req); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("zero price: expected ErrInvalidInput, got %v", err)
	}
}

func TestCoordinator_UpdateStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	c := newCoordinator(store, &fakeGateway{})

	order, err := c.CreateOrder(ctx, createReq(uuid.New(), date(2026, 3, 1), date(2026, 3, 5)))
	if err != nil {
		t.Fatal(err)
	}

	updated, err := c.UpdateStatus(ctx, order.ID, domain.OrderConfirmed)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != domain.OrderConfirmed {
		t.Errorf("expected CONFIRMED, got %s", updated.Status)
	}

	if err := c.Delete(ctx, order.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrder(ctx, order.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("after delete: expected ErrNotFound, got %v", err)
	}
	if err := c.Delete(ctx, order.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestCoordinator_ListOrders(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	c := newCoordinator(store, &fakeGateway{})

	userID := uuid.New()
	for i := 0; i < 5; i++ {
		req := createReq(uuid.New(), date(2026, 3, 1), date(2026, 3, 5))
		if i%2 == 0 {
			req.UserID = userID
		}
		if _, err := c.CreateOrder(ctx, req); err != nil {
			t.Fatal(err)
		}
	}

	orders, total, err := c.ListOrders(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(orders) != 2 {
		t.Errorf("page 1 size 2: expected total 5 and 2 items, got %d and %d", total, len(orders))
	}

	byUser, err := c.ListOrdersByUser(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(byUser) != 3 {
		t.Errorf("expected 3 orders for user, got %d", len(byUser))
	}

	pending, err := c.ListOrdersByStatus(ctx, domain.OrderPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 5 {
		t.Errorf("expected 5 pending orders, got %d", len(pending))
	}
}
