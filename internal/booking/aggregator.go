package booking

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/roomstay/booking-orders/internal/domain"
	"github.com/roomstay/booking-orders/internal/observability"
	"golang.org/x/sync/errgroup"
)

type RoomSource interface {
	GetRoom(ctx context.Context, roomID uuid.UUID) (domain.RoomSnapshot, error)
}

type UserSource interface {
	GetUser(ctx context.Context, userID uuid.UUID) (domain.UserSnapshot, error)
}

type EnrichedOrder struct {
	Order domain.Order
	Room  domain.RoomSnapshot
	User  domain.UserSnapshot
}

// Aggregator enriches pages of orders with room and user snapshots fetched in
// parallel, one call per distinct foreign key. Each fetch is bounded by its
// client's own timeout; a failed fetch degrades that item to a fallback
// snapshot and never fails the batch. Output order always matches input
// order.
type Aggregator struct {
	rooms  RoomSource
	users  UserSource
	logger observability.Logger
}

func NewAggregator(rooms RoomSource, users UserSource, logger observability.Logger) *Aggregator {
	return &Aggregator{rooms: rooms, users: users, logger: logger}
}

func (a *Aggregator) EnrichOrders(ctx context.Context, orders []domain.Order) []EnrichedOrder {
	roomIDs := distinct(orders, func(o domain.Order) uuid.UUID { return o.RoomID })
	userIDs := distinct(orders, func(o domain.Order) uuid.UUID { return o.UserID })

	var (
		mu    sync.Mutex
		rooms = make(map[uuid.UUID]domain.RoomSnapshot, len(roomIDs))
		users = make(map[uuid.UUID]domain.UserSnapshot, len(userIDs))
	)

	// Goroutines always return nil: per-item failures are isolated into
	// fallbacks, never allowed to cancel the sibling fetches.
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range roomIDs {
		id := id
		g.Go(func() error {
			room, err := a.rooms.GetRoom(gctx, id)
			if err != nil {
				a.logger.WithField("room_id", id).WithError(err).Warn("room enrichment failed")
				observability.EnrichmentFallbacks.WithLabelValues("room").Inc()
				room = domain.FallbackRoom(id)
			}
			mu.Lock()
			rooms[id] = room
			mu.Unlock()
			return nil
		})
	}
	for _, id := range userIDs {
		id := id
		g.Go(func() error {
			user, err := a.users.GetUser(gctx, id)
			if err != nil {
				a.logger.WithField("user_id", id).WithError(err).Warn("user enrichment failed")
				observability.EnrichmentFallbacks.WithLabelValues("user").Inc()
				user = domain.FallbackUser(id)
			}
			mu.Lock()
			users[id] = user
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	enriched := make([]EnrichedOrder, len(orders))
	for i, o := range orders {
		enriched[i] = EnrichedOrder{Order: o, Room: rooms[o.RoomID], User: users[o.UserID]}
	}
	return enriched
}

func (a *Aggregator) EnrichOrder(ctx context.Context, order domain.Order) EnrichedOrder {
	return a.EnrichOrders(ctx, []domain.Order{order})[0]
}

func distinct(orders []domain.Order, key func(domain.Order) uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(orders))
	var ids []uuid.UUID
	for _, o := range orders {
		id := key(o)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
