package securitymonitor_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/domain/security"
	"github.com/eventgate/eventgate/pkg/guards/securitymonitor"
	"github.com/eventgate/eventgate/pkg/types"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSecurityRepo struct {
	events []*security.Event
	err    error
}

func (s *stubSecurityRepo) Create(_ context.Context, entity *security.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, entity)
	return nil
}

func (s *stubSecurityRepo) List(_ context.Context, _ security.EventType, _ int) ([]security.Event, error) {
	out := make([]security.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, *e)
	}
	return out, nil
}

func setupMonitor(t *testing.T) (*securitymonitor.Monitor, *stubSecurityRepo, *redis.Client, *time.Time) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := &stubSecurityRepo{}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	monitor := securitymonitor.NewMonitor(client, repo, logger, &securitymonitor.MonitorOpts{
		TimeProvider: func() time.Time { return now },
	})
	return monitor, repo, client, &now
}

func TestMonitor_LogEventPersistsToRedisAndRepository(t *testing.T) {
	monitor, repo, client, _ := setupMonitor(t)
	ctx := context.Background()

	monitor.LogEvent(ctx, security.EventValidationFailed, "203.0.113.7", map[string]interface{}{
		"fields": []string{"email"},
	})

	entries, err := client.LRange(ctx, "security:events:203.0.113.7", 0, -1).Result()
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.Len(t, repo.events, 1)
	assert.Equal(t, security.EventValidationFailed, repo.events[0].Type)
	assert.Equal(t, "203.0.113.7", repo.events[0].ClientKey)
}

func TestMonitor_LogEventCapsPerClientHistory(t *testing.T) {
	monitor, _, client, _ := setupMonitor(t)
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		monitor.LogEvent(ctx, security.EventFormSubmission, "203.0.113.7", nil)
	}

	length, err := client.LLen(ctx, "security:events:203.0.113.7").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(100), length)
}

func TestMonitor_LogEventSwallowsRepositoryErrors(t *testing.T) {
	monitor, repo, client, _ := setupMonitor(t)
	repo.err = errors.New("database down")
	ctx := context.Background()

	monitor.LogEvent(ctx, security.EventFormSubmission, "203.0.113.7", nil)

	// The redis record still lands even when the audit insert fails.
	length, err := client.LLen(ctx, "security:events:203.0.113.7").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
}

func TestMonitor_DetectSuspiciousActivity(t *testing.T) {
	monitor, _, _, _ := setupMonitor(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		monitor.LogEvent(ctx, security.EventFormSubmission, "203.0.113.7", nil)
	}

	suspicious, err := monitor.DetectSuspiciousActivity(ctx, "203.0.113.7", browserUA, securitymonitor.Config{})
	require.NoError(t, err)
	assert.False(t, suspicious)

	monitor.LogEvent(ctx, security.EventFormSubmission, "203.0.113.7", nil)

	suspicious, err = monitor.DetectSuspiciousActivity(ctx, "203.0.113.7", browserUA, securitymonitor.Config{})
	require.NoError(t, err)
	assert.True(t, suspicious)
}

func TestMonitor_NonSubmissionEventsDoNotCount(t *testing.T) {
	monitor, _, _, _ := setupMonitor(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		monitor.LogEvent(ctx, security.EventValidationFailed, "203.0.113.7", nil)
	}

	suspicious, err := monitor.DetectSuspiciousActivity(ctx, "203.0.113.7", browserUA, securitymonitor.Config{})
	require.NoError(t, err)
	assert.False(t, suspicious)
}

func TestMonitor_OldSubmissionsFallOutOfWindow(t *testing.T) {
	monitor, _, _, now := setupMonitor(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		monitor.LogEvent(ctx, security.EventFormSubmission, "203.0.113.7", nil)
	}

	*now = now.Add(2 * time.Minute)

	suspicious, err := monitor.DetectSuspiciousActivity(ctx, "203.0.113.7", browserUA, securitymonitor.Config{})
	require.NoError(t, err)
	assert.False(t, suspicious)
}

func TestMonitor_BotUserAgentLowersThreshold(t *testing.T) {
	monitor, _, _, _ := setupMonitor(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		monitor.LogEvent(ctx, security.EventFormSubmission, "203.0.113.7", nil)
	}

	suspicious, err := monitor.DetectSuspiciousActivity(ctx, "203.0.113.7", browserUA, securitymonitor.Config{})
	require.NoError(t, err)
	assert.False(t, suspicious)

	suspicious, err = monitor.DetectSuspiciousActivity(ctx, "203.0.113.7", botUA, securitymonitor.Config{})
	require.NoError(t, err)
	assert.True(t, suspicious)
}

func TestMonitor_ExecuteReturnsSuspiciousActivityError(t *testing.T) {
	monitor, _, _, _ := setupMonitor(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		monitor.LogEvent(ctx, security.EventFormSubmission, "203.0.113.7", nil)
	}

	sub := &types.Submission{
		ClientKey: "203.0.113.7",
		UserAgent: browserUA,
	}
	err := monitor.Execute(ctx, nil, sub)
	assert.ErrorIs(t, err, domain.ErrSuspiciousActivity)
}

const (
	browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	botUA     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)
