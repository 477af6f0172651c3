package api

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis connects to TEST_REDIS_ADDR and skips when it is not reachable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Skipping test: redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateLimiter_Allow(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRateLimiter(client, 2, time.Minute, "test:ratelimit:"+uuid.NewString()+":")
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	second, err := limiter.Allow(ctx, "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := limiter.Allow(ctx, "127.0.0.1")
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Positive(t, third.RetryAfter)
	assert.LessOrEqual(t, third.RetryAfter, time.Minute)
	assert.WithinDuration(t, time.Now().Add(time.Minute), third.ResetAt, 5*time.Second)

	other, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestRateLimiter_Handler(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRateLimiter(client, 1, time.Minute, "test:ratelimit:"+uuid.NewString()+":")
	app := NewApp(testConfig(), &failingPort{}, &mockLogger{}, limiter)

	resp, _ := doRequest(t, app, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))

	resp, data := doRequest(t, app, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Contains(t, decodeError(t, data), "Rate limit exceeded")

	// Preflight is never limited.
	resp, _ = doRequest(t, app, http.MethodOptions, "/tasks", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	limiter := NewRateLimiter(client, 1, time.Minute, "test:")
	app := NewApp(testConfig(), &failingPort{}, &mockLogger{}, limiter)

	resp, _ := doRequest(t, app, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Error"))
}
