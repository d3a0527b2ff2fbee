package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/roomstay/booking-orders/internal/domain"
	"github.com/roomstay/booking-orders/internal/observability"
	"github.com/shopspring/decimal"
)

// PaymentClient creates payment sessions. There is no sensible fallback for
// payment creation, so failures propagate to the caller and the order is left
// untouched for a retry.
type PaymentClient struct {
	cfg    ServiceConfig
	hc     *http.Client
	logger observability.Logger
}

func NewPaymentClient(cfg ServiceConfig, logger observability.Logger) *PaymentClient {
	return &PaymentClient{cfg: cfg, hc: &http.Client{}, logger: logger}
}

type paymentRequestDTO struct {
	OrderID       uuid.UUID       `json:"orderId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"paymentMethod"`
	SuccessURL    string          `json:"successUrl"`
	CancelURL     string          `json:"cancelUrl"`
	CustomerEmail string          `json:"customerEmail"`
}

type paymentSessionDTO struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	Status          string `json:"status"`
}

func (c *PaymentClient) CreatePayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentSession, error) {
	c.logger.WithField("order_id", req.OrderID).Info("creating payment session")

	var dto paymentSessionDTO
	err := doJSON(ctx, c.hc, c.cfg.Timeout, http.MethodPost, c.cfg.BaseURL+"/payments/create", paymentRequestDTO{
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		CustomerEmail: req.CustomerEmail,
	}, &dto)
	if err != nil {
		c.logger.WithField("order_id", req.OrderID).WithError(err).Error("payment session creation failed")
		return domain.PaymentSession{}, err
	}
	return domain.PaymentSession{
		PaymentIntentID: dto.PaymentIntentID,
		ClientSecret:    dto.ClientSecret,
		Status:          dto.Status,
	}, nil
}
