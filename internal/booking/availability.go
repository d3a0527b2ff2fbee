package booking

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/roomstay/booking-orders/internal/domain"
)

// ConflictCounter is the slice of the order store the availability check
// needs: counting non-terminal orders whose interval overlaps a candidate.
type ConflictCounter interface {
	CountConflicts(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, exclude uuid.UUID) (int64, error)
}

// AvailabilityChecker decides whether a room can be booked for a date range.
// Read only; it never mutates order state. The same logic backs both the
// booking UI pre-check and order creation so the two can never disagree.
type AvailabilityChecker struct {
	store ConflictCounter
}

func NewAvailabilityChecker(store ConflictCounter) *AvailabilityChecker {
	return &AvailabilityChecker{store: store}
}

func (c *AvailabilityChecker) IsAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (bool, error) {
	count, err := c.CountConflicts(ctx, roomID, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (c *AvailabilityChecker) CountConflicts(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int64, error) {
	return c.countExcluding(ctx, roomID, checkIn, checkOut, uuid.Nil)
}

// countExcluding skips one order's own reservation, used when an update moves
// an existing order.
func (c *AvailabilityChecker) countExcluding(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, exclude uuid.UUID) (int64, error) {
	if !checkOut.After(checkIn) {
		return 0, errors.Wrap(domain.ErrInvalidInput, "check-out date must be after check-in date")
	}
	return c.store.CountConflicts(ctx, roomID, checkIn, checkOut, exclude)
}
