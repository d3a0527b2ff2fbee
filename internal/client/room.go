package client

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	redisadapter "github.com/roomstay/booking-orders/internal/adapters/redis"
	"github.com/roomstay/booking-orders/internal/domain"
	"github.com/roomstay/booking-orders/internal/observability"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit protecting the room service on read paths.
type BreakerConfig struct {
	FailureRatio float64
	Interval     time.Duration
	Cooldown     time.Duration
	Probes       uint32
}

// RoomClient fetches room snapshots from the room service. Calls run behind a
// circuit breaker: after the failure ratio trips within the rolling interval,
// calls short-circuit straight to the fallback snapshot until the cooldown
// elapses and limited half-open probes succeed. A short-TTL redis cache sits
// in front to keep page enrichment from hammering the room service.
type RoomClient struct {
	cfg      ServiceConfig
	hc       *http.Client
	cb       *gobreaker.CircuitBreaker[domain.RoomSnapshot]
	cache    *redisadapter.Cache
	cacheTTL time.Duration
	logger   observability.Logger
}

func NewRoomClient(cfg ServiceConfig, bc BreakerConfig, cache *redisadapter.Cache, cacheTTL time.Duration, logger observability.Logger) *RoomClient {
	cb := gobreaker.NewCircuitBreaker[domain.RoomSnapshot](gobreaker.Settings{
		Name:        "room-service",
		MaxRequests: bc.Probes,
		Interval:    bc.Interval,
		Timeout:     bc.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= bc.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			logger.WithField("from", from.String()).WithField("to", to.String()).Warn("circuit breaker state change")
		},
		IsSuccessful: func(err error) bool {
			// 4xx answers are the room service working fine.
			return err == nil || !fallbackApplies(err)
		},
	})
	return &RoomClient{cfg: cfg, hc: &http.Client{}, cb: cb, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 2
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

type roomDTO struct {
	ID            uuid.UUID       `json:"id"`
	RoomNumber    string          `json:"roomNumber"`
	Type          string          `json:"type"`
	PricePerNight decimal.Decimal `json:"pricePerNight"`
	Capacity      int             `json:"capacity"`
	Description   string          `json:"description"`
	IsAvailable   bool            `json:"isAvailable"`
	Location      string          `json:"location"`
	Amenities     []string        `json:"amenities"`
	Images        []roomImageDTO  `json:"images"`
}

type roomImageDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// GetRoom returns the room snapshot, the fallback placeholder when the room
// service is unreachable or the breaker is open, or ErrNotFound for an
// unknown room id. The fallback is never cached and never persisted.
func (c *RoomClient) GetRoom(ctx context.Context, roomID uuid.UUID) (domain.RoomSnapshot, error) {
	if c.cache != nil {
		if room, ok := c.cache.GetRoom(ctx, roomID); ok {
			return room, nil
		}
	}

	room, err := c.cb.Execute(func() (domain.RoomSnapshot, error) {
		var dto roomDTO
		if err := doJSON(ctx, c.hc, c.cfg.Timeout, http.MethodGet, c.cfg.BaseURL+"/rooms/"+roomID.String(), nil, &dto); err != nil {
			return domain.RoomSnapshot{}, err
		}
		return roomFromDTO(roomID, dto), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || fallbackApplies(err) {
			c.logger.WithField("room_id", roomID).WithError(err).Warn("room fetch degraded to fallback")
			observability.EnrichmentFallbacks.WithLabelValues("room").Inc()
			return domain.FallbackRoom(roomID), nil
		}
		return domain.RoomSnapshot{}, err
	}

	if c.cache != nil {
		if err := c.cache.SetRoom(ctx, room, c.cacheTTL); err != nil {
			c.logger.WithError(err).Debug("room cache write failed")
		}
	}
	return room, nil
}

// IsAvailable asks the room service for its own availability flag. This is
// informational only; the authoritative answer comes from the order store.
func (c *RoomClient) IsAvailable(ctx context.Context, roomID uuid.UUID) (bool, error) {
	var available bool
	err := doJSON(ctx, c.hc, c.cfg.Timeout, http.MethodGet, c.cfg.BaseURL+"/rooms/"+roomID.String()+"/availability", nil, &available)
	if err != nil {
		if fallbackApplies(err) {
			return false, nil
		}
		return false, err
	}
	return available, nil
}

func roomFromDTO(roomID uuid.UUID, dto roomDTO) domain.RoomSnapshot {
	id := dto.ID
	if id == uuid.Nil {
		id = roomID
	}
	images := make([]domain.RoomImage, len(dto.Images))
	for i, img := range dto.Images {
		images[i] = domain.RoomImage{ID: img.ID, Name: img.Name, Image: img.Image}
	}
	return domain.RoomSnapshot{
		ID:            id,
		RoomNumber:    dto.RoomNumber,
		Type:          dto.Type,
		PricePerNight: dto.PricePerNight,
		Capacity:      dto.Capacity,
		Description:   dto.Description,
		Available:     dto.IsAvailable,
		Location:      dto.Location,
		Amenities:     dto.Amenities,
		Images:        images,
	}
}
