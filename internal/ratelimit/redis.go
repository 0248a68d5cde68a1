package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript mirrors MemoryStore.Hit: reject without counting once the
// ceiling is reached, otherwise increment and start the window on first hit.
var fixedWindowScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return {0, current, redis.call('PTTL', KEYS[1])}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, current, redis.call('PTTL', KEYS[1])}
`)

// RedisStore keeps fixed-window counters in Redis so that every instance of
// the portal shares the same quotas. Expired windows are evicted by Redis.
type RedisStore struct {
	client redis.Scripter
	prefix string
	now    func() time.Time
}

// NewRedisStore returns a store writing keys under prefix.
func NewRedisStore(client redis.Scripter, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// Hit applies the fixed-window algorithm atomically in Redis.
func (s *RedisStore) Hit(ctx context.Context, key string, max int, window time.Duration) (Result, error) {
	raw, err := fixedWindowScript.Run(ctx, s.client, []string{s.prefix + key}, max, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis fixed window: %w", err)
	}
	if len(raw) != 3 {
		return Result{}, fmt.Errorf("redis fixed window: unexpected reply %v", raw)
	}
	allowed, count, ttl := raw[0] == 1, int(raw[1]), raw[2]
	if ttl < 0 {
		ttl = window.Milliseconds()
	}
	remaining := max - count
	if !allowed || remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   allowed,
		Limit:     max,
		Remaining: remaining,
		ResetAt:   s.now().Add(time.Duration(ttl) * time.Millisecond),
	}, nil
}
