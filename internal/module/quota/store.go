package quota

import (
	"context"
	"time"
)

// Store is the persistence contract for usage counters. Implementations
// must be safe for concurrent use across independent server processes;
// IncrementIfUnder is the single mutating entry point and must be atomic
// with respect to concurrent calls for the same (userKey, periodKey).
type Store interface {
	// Get returns the count for the given user and period. Absence means
	// zero usage, never an error.
	Get(ctx context.Context, userKey, periodKey string) (int64, error)

	// IncrementIfUnder atomically increments the counter iff the current
	// count is below limit. It returns whether the increment was accepted
	// and the resulting count (the pre-existing count when rejected).
	// New counters expire after ttl.
	IncrementIfUnder(ctx context.Context, userKey, periodKey string, limit int64, ttl time.Duration) (accepted bool, newCount int64, err error)

	// Close releases any resources held by the store.
	Close() error
}
