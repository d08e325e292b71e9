package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/socialgraph/backend/internal/logging"
)

const (
	redisConnectAttempts = 10
	redisConnectBackoff  = time.Second
)

var incrementScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

var incrementBelowScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n >= tonumber(ARGV[1]) then
    return 0
end
redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

var decrementScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n > 0 then
    redis.call('DECR', KEYS[1])
end
return n
`)

// RedisStore shares counters between server instances through Redis. Each
// operation runs as a single server-side script so check and increment
// cannot interleave.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedis connects to the Redis server at url, retrying while it starts up.
func DialRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	logger := logging.FromContext(ctx)

	for attempt := 1; ; attempt++ {
		err = client.Ping(ctx).Err()
		if err == nil {
			return NewRedisStore(client), nil
		}
		if attempt == redisConnectAttempts {
			break
		}
		logger.Warn("redis not ready, retrying", "attempt", attempt, "max", redisConnectAttempts, "error", err)

		timer := time.NewTimer(redisConnectBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = client.Close()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("connect to redis: %w", err)
}

// Count implements Store.
func (s *RedisStore) Count(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", key, err)
	}
	return n, nil
}

// Increment implements Store.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := incrementScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis increment %s: %w", key, err)
	}
	return n, nil
}

// IncrementBelow implements Store.
func (s *RedisStore) IncrementBelow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	ok, err := incrementBelowScript.Run(ctx, s.client, []string{key}, limit, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis increment below %s: %w", key, err)
	}
	return ok == 1, nil
}

// Decrement implements Store.
func (s *RedisStore) Decrement(ctx context.Context, key string) error {
	if err := decrementScript.Run(ctx, s.client, []string{key}).Err(); err != nil {
		return fmt.Errorf("redis decrement %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
