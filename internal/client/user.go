package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/roomstay/booking-orders/internal/domain"
	"github.com/roomstay/booking-orders/internal/observability"
)

type UserClient struct {
	cfg    ServiceConfig
	hc     *http.Client
	logger observability.Logger
}

func NewUserClient(cfg ServiceConfig, logger observability.Logger) *UserClient {
	return &UserClient{cfg: cfg, hc: &http.Client{}, logger: logger}
}

type userDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone"`
}

// GetUser returns the user snapshot, or the "Unknown User" placeholder when
// the user service is unreachable. An unknown id surfaces as ErrNotFound.
func (c *UserClient) GetUser(ctx context.Context, userID uuid.UUID) (domain.UserSnapshot, error) {
	var dto userDTO
	err := doJSON(ctx, c.hc, c.cfg.Timeout, http.MethodGet, c.cfg.BaseURL+"/users/"+userID.String(), nil, &dto)
	if err != nil {
		if fallbackApplies(err) {
			c.logger.WithField("user_id", userID).WithError(err).Warn("user fetch degraded to fallback")
			observability.EnrichmentFallbacks.WithLabelValues("user").Inc()
			return domain.FallbackUser(userID), nil
		}
		return domain.UserSnapshot{}, err
	}
	id := dto.ID
	if id == uuid.Nil {
		id = userID
	}
	return domain.UserSnapshot{ID: id, Name: dto.Name, Email: dto.Email, Phone: dto.Phone}, nil
}
