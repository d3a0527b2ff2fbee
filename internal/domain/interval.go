package domain

import "time"

// Overlaps reports whether the half-open date intervals [a1,a2) and [b1,b2)
// intersect. Half-open semantics make back-to-back stays legal: one order's
// check-out day may be another's check-in day.
func Overlaps(a1, a2, b1, b2 time.Time) bool {
	return a1.Before(b2) && b1.Before(a2)
}
