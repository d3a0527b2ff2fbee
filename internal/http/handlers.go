package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/roomstay/booking-orders/internal/booking"
	"github.com/roomstay/booking-orders/internal/config"
	"github.com/roomstay/booking-orders/internal/domain"
	"github.com/roomstay/booking-orders/internal/idempotency"
	"github.com/roomstay/booking-orders/internal/observability"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	cfg         *config.Config
	coordinator *booking.Coordinator
	aggregator  *booking.Aggregator
	idemp       *idempotency.Idempotency
	logger      observability.Logger
}

func NewHandlers(cfg *config.Config, coordinator *booking.Coordinator, aggregator *booking.Aggregator, idemp *idempotency.Idempotency, logger observability.Logger) *Handlers {
	return &Handlers{
		cfg:         cfg,
		coordinator: coordinator,
		aggregator:  aggregator,
		idemp:       idemp,
		logger:      logger,
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	if existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Result)
		return
	}

	var req struct {
		UserID     uuid.UUID       `json:"userId"`
		RoomID     uuid.UUID       `json:"roomId"`
		CheckIn    string          `json:"checkIn"`
		CheckOut   string          `json:"checkOut"`
		TotalPrice decimal.Decimal `json:"totalPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "checkIn must be YYYY-MM-DD")
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "checkOut must be YYYY-MM-DD")
		return
	}

	order, err := h.coordinator.CreateOrder(r.Context(), booking.CreateOrderRequest{
		UserID:     req.UserID,
		RoomID:     req.RoomID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		TotalPrice: req.TotalPrice,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data, _ := json.Marshal(toOrderResponse(order))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)

	// The response is already committed; a failed store only costs the retry
	// its replay, so log and move on.
	if err := h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data}); err != nil {
		h.logger.WithError(err).Warn("failed to store idempotent response")
	}
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	order, err := h.coordinator.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handlers) GetOrderWithRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	order, err := h.coordinator.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	enriched := h.aggregator.EnrichOrder(r.Context(), order)
	writeJSON(w, http.StatusOK, toEnrichedResponse(enriched))
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 20)
	if page < 0 || size <= 0 || size > 100 {
		writeError(w, http.StatusBadRequest, "Bad Request", "invalid page or size")
		return
	}

	orders, total, err := h.coordinator.ListOrders(r.Context(), page, size)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	enriched := h.aggregator.EnrichOrders(r.Context(), orders)
	writeJSON(w, http.StatusOK, toPageResponse(booking.NewPage(enriched, page, size, total)))
}

func (h *Handlers) ListOrdersByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	orders, err := h.coordinator.ListOrdersByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	enriched := h.aggregator.EnrichOrders(r.Context(), orders)
	resp := make([]enrichedOrderResponse, len(enriched))
	for i, e := range enriched {
		resp[i] = toEnrichedResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ListOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseOrderStatus(chi.URLParam(r, "status"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	orders, err := h.coordinator.ListOrdersByStatus(r.Context(), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req struct {
		UserID     uuid.UUID       `json:"userId"`
		RoomID     uuid.UUID       `json:"roomId"`
		CheckIn    string          `json:"checkIn"`
		CheckOut   string          `json:"checkOut"`
		TotalPrice decimal.Decimal `json:"totalPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "checkIn must be YYYY-MM-DD")
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "checkOut must be YYYY-MM-DD")
		return
	}

	order, err := h.coordinator.UpdateOrder(r.Context(), id, booking.CreateOrderRequest{
		UserID:     req.UserID,
		RoomID:     req.RoomID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		TotalPrice: req.TotalPrice,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	order, err := h.coordinator.UpdateStatus(r.Context(), id, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.coordinator.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	order, err := h.coordinator.Cancel(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handlers) CreatePaymentSession(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req struct {
		SuccessURL    string `json:"successUrl"`
		CancelURL     string `json:"cancelUrl"`
		PaymentMethod string `json:"paymentMethod"`
		CustomerEmail string `json:"customerEmail"`
		Currency      string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	_, session, err := h.coordinator.CreatePaymentSession(r.Context(), id, booking.PaymentSessionRequest{
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		PaymentMethod: req.PaymentMethod,
		CustomerEmail: req.CustomerEmail,
		Currency:      req.Currency,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"paymentIntentId": session.PaymentIntentID,
		"clientSecret":    session.ClientSecret,
		"status":          session.Status,
	})
}

func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if err := h.coordinator.HandlePaymentWebhook(r.Context(), payload.Type, payload.Data.Object.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.URL.Query().Get("roomId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "invalid room id")
		return
	}
	checkIn, err := parseDate(r.URL.Query().Get("checkIn"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "checkIn must be YYYY-MM-DD")
		return
	}
	checkOut, err := parseDate(r.URL.Query().Get("checkOut"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "checkOut must be YYYY-MM-DD")
		return
	}

	available, err := h.coordinator.IsRoomAvailable(r.Context(), roomID, checkIn, checkOut)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
