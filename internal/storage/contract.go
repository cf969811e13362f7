package storage

import "time"

// Contract holds a client's prepaid support hours. remaining_hours is
// derived: included - used, kept in sync by the debit/credit statements.
type Contract struct {
	ID             int64          `json:"id"`
	ClientCode     string         `json:"client_code"`
	Status         ContractStatus `json:"status"`
	IncludedHours  float64        `json:"included_hours"`
	UsedHours      float64        `json:"used_hours"`
	RemainingHours float64        `json:"remaining_hours"`
	StartDate      time.Time      `json:"start_date"`
	ExpiryDate     time.Time      `json:"expiry_date"`
}

// AcceptsDebits reports whether the contract may be charged on the given day.
func (c Contract) AcceptsDebits(today time.Time) bool {
	return c.Status == ContractActive && !c.ExpiryDate.Before(truncateDay(today))
}

// DebitResult is what a single contract debit actually did. Overflow is the
// part of the requested hours the balance could not cover.
type DebitResult struct {
	HoursDebited  float64 `json:"hours_debited"`
	HoursOverflow float64 `json:"hours_overflow"`
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
