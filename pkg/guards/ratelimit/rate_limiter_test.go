package ratelimit_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/guards/ratelimit"
	"github.com/eventgate/eventgate/pkg/types"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T) (*ratelimit.Limiter, *redis.Client, *time.Time) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewLimiter(client, &ratelimit.LimiterOpts{
		TimeProvider: func() time.Time { return now },
	})
	return limiter, client, &now
}

func TestLimiter_AllowWithinLimit(t *testing.T) {
	limiter, _, _ := setupLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "ratelimit:test", 3, time.Second)
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d", i+1)
	}

	allowed, err := limiter.Allow(ctx, "ratelimit:test", 3, time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLimiter_RejectionDoesNotRecordAttempt(t *testing.T) {
	limiter, client, _ := setupLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(ctx, "ratelimit:test", 3, time.Minute)
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "ratelimit:test", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	}

	count, err := client.ZCard(ctx, "ratelimit:test").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestLimiter_WindowExpiry(t *testing.T) {
	limiter, _, now := setupLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(ctx, "ratelimit:test", 3, time.Second)
		require.NoError(t, err)
	}
	allowed, err := limiter.Allow(ctx, "ratelimit:test", 3, time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)

	*now = now.Add(1100 * time.Millisecond)

	allowed, err = limiter.Allow(ctx, "ratelimit:test", 3, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_RemainingTime(t *testing.T) {
	limiter, _, now := setupLimiter(t)
	ctx := context.Background()
	window := 10 * time.Second

	remaining, err := limiter.RemainingTime(ctx, "ratelimit:test", window)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), remaining)

	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(ctx, "ratelimit:test", 3, window)
		require.NoError(t, err)
	}

	*now = now.Add(4 * time.Second)

	remaining, err = limiter.RemainingTime(ctx, "ratelimit:test", window)
	require.NoError(t, err)
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, window)
	assert.Equal(t, 6*time.Second, remaining)
}

func TestLimiter_ExecuteReturnsRateLimitError(t *testing.T) {
	limiter, _, _ := setupLimiter(t)
	ctx := context.Background()

	settings := map[string]interface{}{
		"max_attempts": 2,
		"window":       "1m",
	}
	sub := &types.Submission{
		EventID:   uuid.New(),
		ClientKey: "203.0.113.7",
		Values:    map[string]string{},
	}

	require.NoError(t, limiter.Execute(ctx, settings, sub))
	require.NoError(t, limiter.Execute(ctx, settings, sub))

	err := limiter.Execute(ctx, settings, sub)
	require.Error(t, err)

	var rateLimitErr *domain.RateLimitError
	require.ErrorAs(t, err, &rateLimitErr)
	assert.Greater(t, rateLimitErr.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, rateLimitErr.RetryAfter, time.Minute)
	assert.Equal(t, rateLimitErr.RetryAfter.String(), sub.Metadata["retry_after"])
}

func TestLimiter_ValidateConfig(t *testing.T) {
	limiter, _, _ := setupLimiter(t)

	assert.NoError(t, limiter.ValidateConfig(map[string]interface{}{
		"max_attempts": 3,
		"window":       "5m",
	}))
	assert.NoError(t, limiter.ValidateConfig(map[string]interface{}{}))
	assert.Error(t, limiter.ValidateConfig(map[string]interface{}{
		"window": "not-a-duration",
	}))
}

func TestLimiter_AllowPropagatesRedisErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewLimiter(db, &ratelimit.LimiterOpts{
		TimeProvider: func() time.Time { return now },
	})

	windowStart := now.Add(-time.Minute)
	mock.ExpectZCount("ratelimit:test",
		strconv.FormatInt(windowStart.UnixMilli(), 10),
		strconv.FormatInt(now.UnixMilli(), 10),
	).SetErr(assert.AnError)

	_, err := limiter.Allow(context.Background(), "ratelimit:test", 3, time.Minute)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
