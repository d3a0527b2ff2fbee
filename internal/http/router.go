package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roomstay/booking-orders/internal/observability"
	"github.com/roomstay/booking-orders/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(rl))

	r.Route("/api/orders", func(r chi.Router) {
		r.With(RequireIdempotencyKey).Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/availability", h.CheckAvailability)
		r.Get("/user/{userId}", h.ListOrdersByUser)
		r.Get("/status/{status}", h.ListOrdersByStatus)
		r.Get("/{id}", h.GetOrder)
		r.Get("/{id}/with-room", h.GetOrderWithRoom)
		r.Put("/{id}", h.UpdateOrder)
		r.Patch("/{id}/status", h.UpdateOrderStatus)
		r.Delete("/{id}", h.DeleteOrder)
		r.Post("/{id}/cancel", h.CancelOrder)
		r.Post("/{id}/payment-session", h.CreatePaymentSession)
	})
	r.Post("/api/payments/webhook", h.PaymentWebhook)

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
