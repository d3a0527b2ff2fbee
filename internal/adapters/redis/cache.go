package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/roomstay/booking-orders/internal/domain"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

// GetRoom returns the cached snapshot for the room, or false on a miss. Cache
// errors count as misses; the caller falls through to the room service.
func (c *Cache) GetRoom(ctx context.Context, roomID uuid.UUID) (domain.RoomSnapshot, bool) {
	val, err := c.client.Get(ctx, "room:"+roomID.String()).Bytes()
	if err != nil {
		return domain.RoomSnapshot{}, false
	}
	var room domain.RoomSnapshot
	if err := json.Unmarshal(val, &room); err != nil {
		return domain.RoomSnapshot{}, false
	}
	return room, true
}

func (c *Cache) SetRoom(ctx context.Context, room domain.RoomSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "room:"+room.ID.String(), data, ttl).Err()
}
