package api

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// admitScript keeps one sorted set of request timestamps per client. It drops
// entries older than the window and admits the request (ARGV[4] is a unique
// member) while fewer than the limit remain. It returns
// {admitted, in_window_before, oldest_ms}; oldest_ms is -1 for an empty window.
var admitScript = redis.NewScript(`
local now_ms, window_ms, limit = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, now_ms - window_ms)
local seen = redis.call('ZCARD', KEYS[1])

local oldest = -1
local head = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
if head[2] then
	oldest = tonumber(head[2])
end

if seen >= limit then
	return {0, seen, oldest}
end

redis.call('ZADD', KEYS[1], now_ms, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window_ms)
if oldest < 0 then
	oldest = now_ms
end
return {1, seen, oldest}
`)

// RateLimiter is a Redis sliding-window limiter keyed by client IP.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// RateResult is the outcome of one Allow call.
type RateResult struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Allow records a request for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(ctx context.Context, key string) (*RateResult, error) {
	now := time.Now()

	vals, err := admitScript.Run(ctx, l.client, []string{l.prefix + key},
		now.UnixMilli(), l.window.Milliseconds(), l.limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("rate limit script returned %d values", len(vals))
	}
	admitted, seen, oldestMs := vals[0] == 1, int(vals[1]), vals[2]

	res := &RateResult{Allowed: admitted, ResetAt: now.Add(l.window)}
	if oldestMs >= 0 {
		res.ResetAt = time.UnixMilli(oldestMs).Add(l.window)
	}
	if admitted {
		res.Remaining = max(l.limit-seen-1, 0)
	} else {
		res.RetryAfter = max(res.ResetAt.Sub(now), 0)
	}
	return res, nil
}

// Handler limits requests per client IP. Redis failures let the request through.
func (l *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		result, err := l.Allow(c.UserContext(), c.IP())
		if err != nil {
			c.Set("X-RateLimit-Error", err.Error())
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return writeJSON(c, fiber.StatusTooManyRequests, ErrorResponse{
				Error: fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
			})
		}
		return c.Next()
	}
}
