// Package rounding converts a raw technician work interval into a billable
// duration. Billing policy: round up to the next half hour.
package rounding

import (
	"math"
	"time"

	"fieldcrm-billing/internal/storage"
)

type Result struct {
	EffectiveHours float64
	BillableHours  float64
}

// Round computes the exact and the billable duration of an interval on one
// day. 1h01m bills as 1.5h; exactly 1h bills as 1h.
func Round(start, end time.Time) (Result, error) {
	if !end.After(start) {
		return Result{}, storage.ErrInvalidInterval
	}

	effective := end.Sub(start).Minutes() / 60

	// Ceil on half-hour blocks. Scale by 2, ceil, scale back.
	billable := math.Ceil(effective*2) / 2

	return Result{EffectiveHours: effective, BillableHours: billable}, nil
}
