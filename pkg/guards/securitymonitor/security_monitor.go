package securitymonitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avct/uasurfer"
	"github.com/eventgate/eventgate/pkg/common"
	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/domain/security"
	"github.com/eventgate/eventgate/pkg/types"
	"github.com/go-redis/redis/v8"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

const (
	GuardName = "security_monitor"

	// Heuristic defaults: five submissions inside one minute from the same
	// client is treated as suspicious; bot-shaped user agents trip at three.
	DefaultSubmissionThreshold = 5
	DefaultBotThreshold        = 3
	DefaultWindow              = time.Minute
)

// Monitor records pipeline outcomes per client and exposes a deterministic
// suspicious-activity heuristic over the recent history. The hot window
// lives in a capped redis list; every event is also appended to the
// persistent audit trail.
type Monitor struct {
	redis        *redis.Client
	repo         security.Repository
	logger       *logrus.Logger
	timeProvider func() time.Time
}

type MonitorOpts struct {
	TimeProvider func() time.Time
}

type Config struct {
	SubmissionThreshold int    `mapstructure:"submission_threshold"`
	BotThreshold        int    `mapstructure:"bot_threshold"`
	Window              string `mapstructure:"window"`
}

type recordedEvent struct {
	Type string `json:"type"`
	At   int64  `json:"at"`
}

func NewMonitor(
	redisClient *redis.Client,
	repo security.Repository,
	logger *logrus.Logger,
	opts *MonitorOpts,
) *Monitor {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	return &Monitor{
		redis:        redisClient,
		repo:         repo,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

func (m *Monitor) Name() string {
	return GuardName
}

func (m *Monitor) ValidateConfig(settings map[string]interface{}) error {
	var config Config
	if err := mapstructure.Decode(settings, &config); err != nil {
		return fmt.Errorf("invalid security monitor config: %w", err)
	}
	if config.SubmissionThreshold < 0 || config.BotThreshold < 0 {
		return fmt.Errorf("security monitor thresholds must be non-negative")
	}
	if config.Window != "" {
		if _, err := time.ParseDuration(config.Window); err != nil {
			return fmt.Errorf("invalid window format: %w", err)
		}
	}
	return nil
}

// LogEvent appends an observation for the client. Failures are logged and
// swallowed: recording must never fail the submission that triggered it.
func (m *Monitor) LogEvent(
	ctx context.Context,
	eventType security.EventType,
	clientKey string,
	metadata map[string]interface{},
) {
	now := m.timeProvider()

	payload, err := json.Marshal(recordedEvent{
		Type: string(eventType),
		At:   now.UnixMilli(),
	})
	if err != nil {
		m.logger.WithError(err).Error("failed to marshal security event")
		return
	}

	key := eventListKey(clientKey)
	pipe := m.redis.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, common.SecurityEventMaxPerKey-1)
	pipe.Expire(ctx, key, common.SecurityEventRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		m.logger.WithError(err).WithField("client_key", clientKey).
			Error("failed to record security event in redis")
	}

	entity := &security.Event{
		Type:      eventType,
		ClientKey: clientKey,
		Metadata:  metadata,
		CreatedAt: now,
	}
	if err := m.repo.Create(ctx, entity); err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"client_key": clientKey,
			"event_type": eventType,
		}).Error("failed to persist security event")
	}
}

// DetectSuspiciousActivity counts recent submissions by the client and
// compares against the configured threshold. Deterministic for a given event
// history and clock.
func (m *Monitor) DetectSuspiciousActivity(
	ctx context.Context,
	clientKey string,
	userAgent string,
	config Config,
) (bool, error) {
	threshold := config.SubmissionThreshold
	if threshold == 0 {
		threshold = DefaultSubmissionThreshold
	}
	botThreshold := config.BotThreshold
	if botThreshold == 0 {
		botThreshold = DefaultBotThreshold
	}
	window := DefaultWindow
	if config.Window != "" {
		parsed, err := time.ParseDuration(config.Window)
		if err != nil {
			return false, fmt.Errorf("invalid window duration: %w", err)
		}
		window = parsed
	}

	if isBotUserAgent(userAgent) {
		threshold = botThreshold
	}

	entries, err := m.redis.LRange(ctx, eventListKey(clientKey), 0, common.SecurityEventMaxPerKey-1).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read security events: %w", err)
	}

	windowStart := m.timeProvider().Add(-window).UnixMilli()
	submissions := 0
	for _, entry := range entries {
		var evt recordedEvent
		if err := json.Unmarshal([]byte(entry), &evt); err != nil {
			continue
		}
		if evt.Type == string(security.EventFormSubmission) && evt.At >= windowStart {
			submissions++
		}
	}

	return submissions >= threshold, nil
}

func (m *Monitor) Execute(ctx context.Context, settings map[string]interface{}, sub *types.Submission) error {
	var config Config
	if err := mapstructure.Decode(settings, &config); err != nil {
		return fmt.Errorf("invalid security monitor config: %w", err)
	}

	suspicious, err := m.DetectSuspiciousActivity(ctx, sub.ClientKey, sub.UserAgent, config)
	if err != nil {
		return err
	}
	if suspicious {
		return domain.ErrSuspiciousActivity
	}
	return nil
}

func isBotUserAgent(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	ua := uasurfer.Parse(userAgent)
	return ua.Browser.Name == uasurfer.BrowserBot || ua.OS.Name == uasurfer.OSBot
}

func eventListKey(clientKey string) string {
	return fmt.Sprintf("security:events:%s", clientKey)
}
