package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/roomstay/booking-orders/internal/domain"
)

// ErrorResponse is the structured error body every failed request carries.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

func writeError(w http.ResponseWriter, status int, class, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     class,
		Message:   message,
	})
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrRoomNotAvailable):
		writeError(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrSerializationFailure):
		writeError(w, http.StatusConflict, "Conflict", "conflicting update, try again")
	case errors.Is(err, domain.ErrDependencyUnavailable):
		writeError(w, http.StatusBadGateway, "Bad Gateway", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}
