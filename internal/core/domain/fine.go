package domain

import "time"

// ComputeFine returns the monetary fine for returning a loan at returnDate
// against dueDate. Zero when returned on or before the due date; otherwise
// daysLate * ratePerDay where any partial day counts as a full day late.
//
// The function is pure: both instants are compared as absolute points in
// time (callers pass UTC), so the amount is invariant across time zones.
func ComputeFine(dueDate, returnDate time.Time, ratePerDay float64) float64 {
	late := returnDate.Sub(dueDate)
	if late <= 0 {
		return 0
	}

	days := int64(late / (24 * time.Hour))
	if late%(24*time.Hour) > 0 {
		days++
	}

	return float64(days) * ratePerDay
}
