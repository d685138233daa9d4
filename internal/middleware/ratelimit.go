// Package middleware provides request context, logging, rate limiting, tracing and metrics middleware.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"circles/internal/cache"
	"circles/internal/models"
	"circles/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed answers 503 if Redis is unavailable.
	FailClosed
)

var errNoLimiterStore = errors.New("redis client is nil")

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

func limitsBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// Check counts one hit against a fixed window per resource and caller.
// Limits are off when APP_ENV is test, development or stress.
func Check(ctx context.Context, rdb *redis.Client, resource, caller string, limit int, window time.Duration) (Decision, error) {
	if limitsBypassed() {
		return Decision{Allowed: true, Remaining: limit}, nil
	}
	if rdb == nil {
		return Decision{}, errNoLimiterStore
	}

	key := cache.RateLimitKey(resource, caller)
	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.RedisErrorRate.WithLabelValues("rate_limit").Inc()
		return Decision{}, err
	}

	// The first hit opens the window; a key left without expiry is repaired.
	retry := ttl.Val()
	if incr.Val() == 1 || retry < 0 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			observability.RedisErrorRate.WithLabelValues("rate_limit").Inc()
		}
		retry = window
	}

	used := int(incr.Val())
	d := Decision{Allowed: used <= limit, Remaining: max(limit-used, 0)}
	if !d.Allowed {
		d.RetryAfter = retry
	}
	return d, nil
}

// CheckRateLimit reports whether the caller is still within its budget.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, caller string, limit int, window time.Duration) (bool, error) {
	d, err := Check(ctx, rdb, resource, caller, limit, window)
	return d.Allowed, err
}

// RateLimit enforces limit requests per window, keyed by the authenticated
// user when known and the client IP otherwise. It fails open.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit store failure policy.
// Routes sharing a name share one budget.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		caller := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			caller = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		d, err := Check(ctx, rdb, resource, caller, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(ctx, "rate limit store unavailable, failing closed",
					slog.String("path", c.Path()),
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return models.RespondWithAppError(c, models.NewUpstreamError("rate limiter", err))
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			secs := int((d.RetryAfter + time.Second - 1) / time.Second)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return models.RespondWithAppError(c, models.NewRateLimitedError(resource))
		}
		return c.Next()
	}
}
