package quota

import (
	"fmt"
	"time"
)

// periodKeyLayout is the calendar-date form of a period key.
const periodKeyLayout = "2006-01-02"

// Policy maps instants to period keys: one period per calendar day in a
// single reference timezone. Boundaries are never computed in the user's
// local time, so the mapping stays total under DST and tzdata changes.
type Policy struct {
	loc *time.Location
}

// NewPolicy creates a day-boundary policy for the given IANA timezone name.
func NewPolicy(timezone string) (*Policy, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Policy{loc: loc}, nil
}

// UTCPolicy returns the default policy with UTC day boundaries.
func UTCPolicy() *Policy {
	return &Policy{loc: time.UTC}
}

// PeriodKey returns the period key for the given instant.
func (p *Policy) PeriodKey(now time.Time) string {
	return now.In(p.loc).Format(periodKeyLayout)
}

// SamePeriod reports whether two period keys denote the same period.
func (p *Policy) SamePeriod(a, b string) bool {
	return a != "" && a == b
}

// NextReset returns the instant the current period ends: midnight of the
// following day in the reference timezone. time.Date normalizes day+1
// correctly across month ends and DST transitions.
func (p *Policy) NextReset(now time.Time) time.Time {
	local := now.In(p.loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, p.loc)
}

// TTL returns how long a counter created at now should live. A one-period
// grace is added so records stay readable briefly past the boundary.
func (p *Policy) TTL(now time.Time) time.Duration {
	return p.NextReset(now).Sub(now) + 24*time.Hour
}
