// Package quota enforces the per-user daily generation ceiling.
//
// A quota period is one calendar day in a single reference timezone. Each
// (user, period) pair owns one counter in the Store; the Gate is the only
// component that mutates it. Admission fails closed on storage errors,
// post-success bookkeeping fails open: a user who generated successfully is
// never retroactively charged because the increment could not be recorded.
package quota

import "time"

// Snapshot is a read-only view of a user's usage within the current period.
type Snapshot struct {
	Used      int64     `json:"used"`
	Limit     int64     `json:"limit"`
	Remaining int64     `json:"remaining"`
	PeriodKey string    `json:"period"`
	ResetsAt  time.Time `json:"resets_at"`
}

// ConsumeResult reports the outcome of a single quota consumption.
type ConsumeResult struct {
	Accepted  bool   `json:"accepted"`
	Used      int64  `json:"used"`
	Limit     int64  `json:"limit"`
	PeriodKey string `json:"period"`
}

// Limits holds the configured ceilings. Tiers maps a user class (e.g.
// "business") to its ceiling; any class not present uses Default.
type Limits struct {
	Default int64
	Tiers   map[string]int64
}

// For returns the ceiling for the given user class.
func (l Limits) For(class string) int64 {
	if limit, ok := l.Tiers[class]; ok {
		return limit
	}
	return l.Default
}
