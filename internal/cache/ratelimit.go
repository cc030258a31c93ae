package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter kept in Redis.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

// Enabled reports whether limiting is active.
func (l *Limiter) Enabled() bool {
	return l != nil && l.client != nil && l.limit > 0
}

// Allow counts one request for key and reports whether it is within the limit,
// together with the remaining budget and the time until the window resets.
func (l *Limiter) Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Duration, err error) {
	if !l.Enabled() {
		return true, l.limitOrZero(), 0, nil
	}
	key = "storefront:rl:" + key
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	// NX leaves the window of an existing counter alone and still arms a key
	// whose expiry was never set.
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, 0, err
	}
	count := incr.Val()
	reset = ttl.Val()
	if reset < 0 {
		reset = l.window
	}
	remaining = l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return int(count) <= l.limit, remaining, reset, nil
}

func (l *Limiter) limitOrZero() int {
	if l == nil {
		return 0
	}
	return l.limit
}
