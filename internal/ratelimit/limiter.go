// Package ratelimit implements a fixed-window, per-IP request limiter
// backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultLimit  = 10
	defaultWindow = 15 * time.Minute
)

// Limiter counts requests per (purpose, ip) in fixed windows.
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{
		client: client,
		limit:  defaultLimit,
		window: defaultWindow,
	}
}

func requestKey(purpose, ip string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}

// Allow records a request and reports whether it is within the limit.
// The window TTL is set together with the first increment so a failed
// EXPIRE cannot leave an immortal counter.
func (l *Limiter) Allow(ctx context.Context, ip, purpose string) (bool, error) {
	key := requestKey(purpose, ip)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to record request: %w", err)
	}

	return incr.Val() <= l.limit, nil
}
