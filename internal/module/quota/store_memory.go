package quota

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count      int64
	expiration time.Time
}

// MemoryStore is an in-memory Store for tests and single-instance
// deployments. Counters expire like their Redis counterparts; a janitor
// goroutine sweeps stale periods.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	stopCh  chan struct{}
}

// NewMemoryStore creates an in-memory quota store.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		stopCh:  make(chan struct{}),
	}

	go m.cleanup()
	return m
}

// Get returns the count for the given user and period.
func (m *MemoryStore) Get(_ context.Context, userKey, periodKey string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[counterKey(userKey, periodKey)]
	if !ok || time.Now().After(entry.expiration) {
		return 0, nil
	}
	return entry.count, nil
}

// IncrementIfUnder atomically increments the counter iff it is below limit.
func (m *MemoryStore) IncrementIfUnder(_ context.Context, userKey, periodKey string, limit int64, ttl time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := counterKey(userKey, periodKey)
	now := time.Now()

	entry, ok := m.entries[key]
	if !ok || now.After(entry.expiration) {
		if limit < 1 {
			return false, 0, nil
		}
		m.entries[key] = &memoryEntry{count: 1, expiration: now.Add(ttl)}
		return true, 1, nil
	}

	if entry.count >= limit {
		return false, entry.count, nil
	}
	entry.count++
	return true, entry.count, nil
}

// Close stops the janitor goroutine.
func (m *MemoryStore) Close() error {
	close(m.stopCh)
	return nil
}

func (m *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, entry := range m.entries {
				if now.After(entry.expiration) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		case <-m.stopCh:
			return
		}
	}
}

// Compile-time check
var _ Store = (*MemoryStore)(nil)
