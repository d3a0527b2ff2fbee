package booking_test

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/roomstay/booking-orders/internal/domain"
)

// memStore is an in-memory OrderStore with the same conflict and version
// semantics as the database repository.
type memStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]domain.Order
	ids    []uuid.UUID
	events []domain.Event
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[uuid.UUID]domain.Order)}
}

func (s *memStore) CountConflicts(_ context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, exclude uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countConflictsLocked(roomID, checkIn, checkOut, exclude), nil
}

func (s *memStore) countConflictsLocked(roomID uuid.UUID, checkIn, checkOut time.Time, exclude uuid.UUID) int64 {
	var count int64
	for _, o := range s.orders {
		if o.RoomID != roomID || o.ID == exclude || !o.Status.Blocking() {
			continue
		}
		if domain.Overlaps(o.CheckIn, o.CheckOut, checkIn, checkOut) {
			count++
		}
	}
	return count
}

func (s *memStore) CreateOrder(_ context.Context, order domain.Order, evt domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countConflictsLocked(order.RoomID, order.CheckIn, order.CheckOut, uuid.Nil) > 0 {
		return domain.ErrRoomNotAvailable
	}
	s.orders[order.ID] = order
	s.ids = append(s.ids, order.ID)
	s.events = append(s.events, evt)
	return nil
}

func (s *memStore) GetOrder(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, errors.Wrap(domain.ErrNotFound, "order not found")
	}
	return order, nil
}

func (s *memStore) GetOrderByPaymentIntent(_ context.Context, intentID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.PaymentIntentID == intentID {
			return o, nil
		}
	}
	return domain.Order{}, errors.Wrap(domain.ErrNotFound, "order not found")
}

func (s *memStore) UpdateOrder(_ context.Context, order domain.Order, evts ...domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != order.Version {
		return domain.ErrVersionConflict
	}
	order.Version++
	order.UpdatedAt = time.Now().UTC()
	s.orders[order.ID] = order
	s.events = append(s.events, evts...)
	return nil
}

func (s *memStore) DeleteOrder(_ context.Context, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.orders, orderID)
	for i, id := range s.ids {
		if id == orderID {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memStore) ListOrders(_ context.Context, offset, limit int) ([]domain.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := int64(len(s.ids))
	if offset >= len(s.ids) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(s.ids) {
		end = len(s.ids)
	}
	orders := make([]domain.Order, 0, end-offset)
	for _, id := range s.ids[offset:end] {
		orders = append(orders, s.orders[id])
	}
	return orders, total, nil
}

func (s *memStore) ListOrdersByUser(_ context.Context, userID uuid.UUID) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var orders []domain.Order
	for _, id := range s.ids {
		if o := s.orders[id]; o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (s *memStore) ListOrdersByStatus(_ context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var orders []domain.Order
	for _, id := range s.ids {
		if o := s.orders[id]; o.Status == status {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (s *memStore) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, len(s.events))
	for i, e := range s.events {
		types[i] = e.Type
	}
	return types
}

// fakeGateway is a PaymentGateway returning a canned session or a canned
// error.
type fakeGateway struct {
	mu      sync.Mutex
	calls   int
	err     error
	session domain.PaymentSession
}

func (g *fakeGateway) CreatePayment(context.Context, domain.PaymentRequest) (domain.PaymentSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return domain.PaymentSession{}, g.err
	}
	return g.session, nil
}
