package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const counterKeyPrefix = "quota:requests:"

// incrIfUnderScript performs the compare-and-increment server-side so two
// requests racing for the last unit cannot both be accepted, regardless of
// how many stateless server processes share the Redis instance.
var incrIfUnderScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if current >= limit then
	return {0, current}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return {1, current}
`)

// RedisStore is the production Store backed by Redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed quota store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func counterKey(userKey, periodKey string) string {
	return fmt.Sprintf("%s%s:%s", counterKeyPrefix, userKey, periodKey)
}

// Get returns the count for the given user and period.
func (s *RedisStore) Get(ctx context.Context, userKey, periodKey string) (int64, error) {
	val, err := s.client.Get(ctx, counterKey(userKey, periodKey)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return val, nil
}

// IncrementIfUnder atomically increments the counter iff it is below limit.
func (s *RedisStore) IncrementIfUnder(ctx context.Context, userKey, periodKey string, limit int64, ttl time.Duration) (bool, int64, error) {
	ttlSeconds := int64(ttl / time.Second)
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	res, err := incrIfUnderScript.Run(ctx, s.client,
		[]string{counterKey(userKey, periodKey)}, limit, ttlSeconds).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("%w: unexpected script reply", ErrStoreUnavailable)
	}

	return res[0] == 1, res[1], nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Compile-time check
var _ Store = (*RedisStore)(nil)
