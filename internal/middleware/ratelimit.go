package middleware

import (
	"context"
	"fmt"
	"time"

	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// DefaultStoreTimeout bounds each limiter round trip to Redis.
const DefaultStoreTimeout = 200 * time.Millisecond

// RateLimiter counts writes per actor in fixed Redis windows.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
	timeout time.Duration
}

// NewRateLimiter returns a limiter. Limiting is skipped outside production-like
// environments so test and dev workflows are not throttled.
func NewRateLimiter(rdb *redis.Client, env string) *RateLimiter {
	switch env {
	case "", "test", "development", "stress":
		return &RateLimiter{rdb: rdb, timeout: DefaultStoreTimeout}
	}
	return &RateLimiter{rdb: rdb, enabled: true, timeout: DefaultStoreTimeout}
}

// WithStoreTimeout overrides how long one Allow call may wait on Redis.
func (l *RateLimiter) WithStoreTimeout(d time.Duration) *RateLimiter {
	l.timeout = d
	return l
}

// Allow reports whether id may perform another request against resource.
// A slow or unreachable store fails within the limiter's store timeout and
// is reported as an error, leaving the decision to the caller's FailPolicy.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if !l.enabled {
		return true, nil
	}
	if l.rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		RedisErrors.WithLabelValues("incr").Inc()
		return false, err
	}
	if cnt == 1 {
		// a counter without a TTL would never reset
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			RedisErrors.WithLabelValues("expire").Inc()
			return false, err
		}
	}
	return cnt <= int64(limit), nil
}

// Limit returns a handler enforcing limit requests per window for the named resource.
// It keys by the authenticated principal when present, otherwise by remote IP.
func (l *RateLimiter) Limit(resource string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if p, ok := PrincipalFrom(c); ok {
			id = fmt.Sprintf("user:%d", p.ID)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		allowed, err := l.Allow(c.UserContext(), resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
					"resource", resource, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
