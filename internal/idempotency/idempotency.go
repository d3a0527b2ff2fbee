package idempotency

import (
	"context"
	"time"

	redisadapter "github.com/roomstay/booking-orders/internal/adapters/redis"
)

// Store is the persistence behind the replay cache; the redis adapter is the
// production implementation.
type Store interface {
	Get(ctx context.Context, key string) (*redisadapter.IdempResponse, error)
	Set(ctx context.Context, key string, resp redisadapter.IdempResponse, ttl time.Duration) error
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Order creation retries (for example after a payment-session timeout) must
// not double-book a room.
type Idempotency struct {
	store Store
	ttl   time.Duration
}

func NewIdempotency(store Store, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl}
}

type Response struct {
	Status int
	Result []byte
}

func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	if i.store == nil {
		return nil, nil
	}
	stored, err := i.store.Get(ctx, key)
	if err != nil || stored == nil {
		return nil, err
	}
	return &Response{Status: stored.Status, Result: stored.Result}, nil
}

func (i *Idempotency) Set(ctx context.Context, key string, resp Response) error {
	if i.store == nil {
		return nil
	}
	return i.store.Set(ctx, key, redisadapter.IdempResponse{Status: resp.Status, Result: resp.Result}, i.ttl)
}
