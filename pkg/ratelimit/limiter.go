// Package ratelimit provides an optional redis-backed fixed-window request
// limiter for the HTTP surface. A nil *Limiter is the disabled mode: Allow
// always passes, so callers wire it unconditionally.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sentriq/screend/pkg/config"
)

// window is the fixed limiting window.
const window = time.Minute

// Limiter counts requests per client key in redis windows.
type Limiter struct {
	client *redis.Client
	limit  int
	logger *slog.Logger
}

// New returns a limiter, or nil when no redis address is configured.
func New(cfg config.RateLimitConfig, logger *slog.Logger) *Limiter {
	if cfg.RedisAddr == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		client: redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}),
		limit:  cfg.RequestsPerMinute,
		logger: logger,
	}
}

// Allow reports whether the client may proceed, and when not, how long until
// the window resets. Redis being down fails open: screening availability
// outranks rate accounting.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}

	now := time.Now()
	windowStart := now.Truncate(window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, windowStart.Unix())

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("rate limiter unavailable, failing open", "error", err)
		return true, 0
	}

	if count.Val() > int64(l.limit) {
		return false, windowStart.Add(window).Sub(now)
	}
	return true, 0
}

// Close releases the redis connection. Safe on a nil limiter.
func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	return l.client.Close()
}
