package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/types"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

const (
	GuardName = "rate_limiter"

	DefaultMaxAttempts = 3
	DefaultWindow      = 5 * time.Minute
)

// Limiter enforces a sliding window of submission attempts per action key.
// Attempts are stored in a Redis sorted set scored by unix milliseconds and
// pruned lazily on each accepted attempt. A rejected attempt is never
// recorded, so hammering a closed window cannot extend it.
type Limiter struct {
	redis        *redis.Client
	timeProvider func() time.Time
	uuidProvider func() uuid.UUID
}

type LimiterOpts struct {
	TimeProvider func() time.Time
	UuidProvider func() uuid.UUID
}

type Config struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	Window      string `mapstructure:"window"`
}

func NewLimiter(redisClient *redis.Client, opts *LimiterOpts) *Limiter {
	timeProvider := time.Now
	uuidProvider := uuid.New
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	if opts != nil && opts.UuidProvider != nil {
		uuidProvider = opts.UuidProvider
	}

	return &Limiter{
		redis:        redisClient,
		timeProvider: timeProvider,
		uuidProvider: uuidProvider,
	}
}

func (l *Limiter) Name() string {
	return GuardName
}

func (l *Limiter) ValidateConfig(settings map[string]interface{}) error {
	var config Config
	if err := mapstructure.Decode(settings, &config); err != nil {
		return fmt.Errorf("invalid rate limiter config: %w", err)
	}
	if config.MaxAttempts < 0 {
		return fmt.Errorf("rate limiter requires a non-negative 'max_attempts' value")
	}
	if config.Window != "" {
		if _, err := time.ParseDuration(config.Window); err != nil {
			return fmt.Errorf("invalid window format: %w", err)
		}
	}
	return nil
}

// Allow checks the attempt count for key within the window and, when below
// maxAttempts, records the current attempt. Returns false without recording
// anything when the limit is already reached.
func (l *Limiter) Allow(ctx context.Context, key string, maxAttempts int, window time.Duration) (bool, error) {
	now := l.timeProvider()
	windowStart := now.Add(-window)

	currentCount, err := l.redis.ZCount(ctx, key,
		strconv.FormatInt(windowStart.UnixMilli(), 10),
		strconv.FormatInt(now.UnixMilli(), 10)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to get attempt count: %w", err)
	}

	if currentCount >= int64(maxAttempts) {
		return false, nil
	}

	attemptID := fmt.Sprintf("%d:%s", now.UnixMilli(), l.uuidProvider().String())
	pipe := l.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: attemptID,
	})
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to record attempt: %w", err)
	}

	return true, nil
}

// RemainingTime reports how long until the oldest in-window attempt leaves
// the window. Zero when no attempts are recorded.
func (l *Limiter) RemainingTime(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	now := l.timeProvider()
	windowStart := now.Add(-window)

	oldest, err := l.redis.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min:    strconv.FormatInt(windowStart.UnixMilli(), 10),
		Max:    "+inf",
		Offset: 0,
		Count:  1,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get oldest attempt: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	oldestAt := time.UnixMilli(int64(oldest[0].Score))
	remaining := oldestAt.Add(window).Sub(now)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func (l *Limiter) Execute(ctx context.Context, settings map[string]interface{}, sub *types.Submission) error {
	var config Config
	if err := mapstructure.Decode(settings, &config); err != nil {
		return fmt.Errorf("invalid rate limiter config: %w", err)
	}
	maxAttempts := config.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}
	window := DefaultWindow
	if config.Window != "" {
		parsed, err := time.ParseDuration(config.Window)
		if err != nil {
			return fmt.Errorf("invalid window duration: %w", err)
		}
		window = parsed
	}

	key := SubmissionKey(sub.EventID.String(), sub.ClientKey)

	allowed, err := l.Allow(ctx, key, maxAttempts, window)
	if err != nil {
		return err
	}
	if allowed {
		return nil
	}

	retryAfter, err := l.RemainingTime(ctx, key, window)
	if err != nil {
		return err
	}
	sub.SetMetadata("retry_after", retryAfter.String())
	return &domain.RateLimitError{RetryAfter: retryAfter}
}

func SubmissionKey(eventID, clientKey string) string {
	return fmt.Sprintf("ratelimit:submission:%s:%s", eventID, clientKey)
}
