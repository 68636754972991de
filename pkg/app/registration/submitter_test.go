package registration_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	appevent "github.com/eventgate/eventgate/pkg/app/event"
	appregistration "github.com/eventgate/eventgate/pkg/app/registration"
	"github.com/eventgate/eventgate/pkg/cache"
	"github.com/eventgate/eventgate/pkg/config"
	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/domain/event"
	"github.com/eventgate/eventgate/pkg/domain/registration"
	"github.com/eventgate/eventgate/pkg/domain/security"
	"github.com/eventgate/eventgate/pkg/guards"
	"github.com/eventgate/eventgate/pkg/guards/ratelimit"
	"github.com/eventgate/eventgate/pkg/guards/sanitizer"
	"github.com/eventgate/eventgate/pkg/guards/securitymonitor"
	"github.com/eventgate/eventgate/pkg/guards/validator"
	"github.com/eventgate/eventgate/pkg/infra/notifier"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEventRepo struct {
	entity *event.Event
}

func (s *stubEventRepo) Create(_ context.Context, _ *event.Event) error { return nil }

func (s *stubEventRepo) Get(_ context.Context, id uuid.UUID) (*event.Event, error) {
	if s.entity == nil || s.entity.ID != id {
		return nil, domain.NewNotFoundError("event", id)
	}
	return s.entity, nil
}

func (s *stubEventRepo) GetBySlug(_ context.Context, slug string) (*event.Event, error) {
	if s.entity == nil || s.entity.Slug != slug {
		return nil, domain.NewNotFoundError("event", uuid.Nil)
	}
	return s.entity, nil
}

func (s *stubEventRepo) List(_ context.Context) ([]event.Event, error) {
	if s.entity == nil {
		return nil, nil
	}
	return []event.Event{*s.entity}, nil
}

func (s *stubEventRepo) Update(_ context.Context, _ *event.Event) error { return nil }

type stubRegistrationRepo struct {
	created []*registration.Registration
	// capacity reports a fixed confirmed count instead of len(created).
	capacity int64
	// raceDuplicate simulates a concurrent insert winning between the
	// duplicate lookup and the insert itself.
	raceDuplicate bool
}

func (s *stubRegistrationRepo) Create(_ context.Context, entity *registration.Registration) error {
	if s.raceDuplicate {
		return domain.ErrDuplicateEmail
	}
	for _, existing := range s.created {
		if existing.EventID == entity.EventID && existing.Email == entity.Email {
			return domain.ErrDuplicateEmail
		}
	}
	entity.ID = uuid.New()
	entity.CreatedAt = time.Now()
	s.created = append(s.created, entity)
	return nil
}

func (s *stubRegistrationRepo) Get(_ context.Context, id uuid.UUID) (*registration.Registration, error) {
	for _, existing := range s.created {
		if existing.ID == id {
			return existing, nil
		}
	}
	return nil, domain.NewNotFoundError("registration", id)
}

func (s *stubRegistrationRepo) ListByEvent(_ context.Context, _ uuid.UUID) ([]registration.Registration, error) {
	out := make([]registration.Registration, 0, len(s.created))
	for _, r := range s.created {
		out = append(out, *r)
	}
	return out, nil
}

func (s *stubRegistrationRepo) CountConfirmed(_ context.Context, _ uuid.UUID) (int64, error) {
	if s.capacity > 0 {
		return s.capacity, nil
	}
	return int64(len(s.created)), nil
}

func (s *stubRegistrationRepo) ExistsByEmail(_ context.Context, _ uuid.UUID, email string) (bool, error) {
	if s.raceDuplicate {
		return false, nil
	}
	for _, existing := range s.created {
		if existing.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type stubSecurityRepo struct {
	events []*security.Event
}

func (s *stubSecurityRepo) Create(_ context.Context, entity *security.Event) error {
	s.events = append(s.events, entity)
	return nil
}

func (s *stubSecurityRepo) List(_ context.Context, _ security.EventType, _ int) ([]security.Event, error) {
	return nil, nil
}

func (s *stubSecurityRepo) countByType(eventType security.EventType) int {
	count := 0
	for _, e := range s.events {
		if e.Type == eventType {
			count++
		}
	}
	return count
}

type harness struct {
	submitter appregistration.Submitter
	event     *event.Event
	regRepo   *stubRegistrationRepo
	secRepo   *stubSecurityRepo
	now       *time.Time
}

func setupSubmitter(t *testing.T) *harness {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	entity := &event.Event{
		ID:       uuid.New(),
		Title:    "Spring Gala 2025",
		Slug:     "spring-gala-2025",
		Format:   event.FormatInPerson,
		Status:   event.StatusPublished,
		StartsAt: time.Date(2025, 4, 1, 18, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, 4, 1, 23, 0, 0, 0, time.UTC),
		Location: "Grand Hall",
		Capacity: 100,
		Pricing: event.PricingJSON{
			AmountsCents: map[event.Tier]int64{
				event.TierRegular:   10000,
				event.TierEarlyBird: 7500,
				event.TierMember:    5000,
			},
			EarlyBird: &event.EarlyBirdWindow{
				OpensAt:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
				ClosesAt: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			},
			Currency: "USD",
		},
	}

	regRepo := &stubRegistrationRepo{}
	secRepo := &stubSecurityRepo{}

	finder := appevent.NewFinder(&stubEventRepo{entity: entity}, cache.NewCacheWithClient(client), logger)
	limiter := ratelimit.NewLimiter(client, &ratelimit.LimiterOpts{TimeProvider: clock})
	monitor := securitymonitor.NewMonitor(client, secRepo, logger, &securitymonitor.MonitorOpts{TimeProvider: clock})

	manager, err := guards.NewManager(logger, config.GuardsConfig{
		Settings: map[string]map[string]interface{}{
			"rate_limiter": {"max_attempts": 3, "window": "5m"},
		},
	},
		limiter,
		sanitizer.NewSanitizer(),
		validator.NewValidator(),
		monitor,
	)
	require.NoError(t, err)

	submitter := appregistration.NewSubmitter(
		finder, regRepo, manager, monitor, notifier.NoopNotifier{}, logger,
		&appregistration.SubmitterOpts{TimeProvider: clock},
	)

	return &harness{
		submitter: submitter,
		event:     entity,
		regRepo:   regRepo,
		secRepo:   secRepo,
		now:       &now,
	}
}

func validValues(email string) map[string]string {
	return map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      email,
		"phone":      "+1 555 0100",
	}
}

func (h *harness) submit(clientKey string, values map[string]string) (*appregistration.Result, error) {
	return h.submitter.Submit(context.Background(), appregistration.SubmitInput{
		EventID:   h.event.ID.String(),
		ClientKey: clientKey,
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) Firefox/124.0",
		Values:    values,
	})
}

func TestSubmit_MissingRequiredFieldRejectsWithValidationError(t *testing.T) {
	h := setupSubmitter(t)

	values := validValues("ada@example.com")
	values["first_name"] = ""

	result, err := h.submit("203.0.113.7", values)

	require.Error(t, err)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "first_name")

	assert.Nil(t, result)
	assert.Empty(t, h.regRepo.created)
	assert.Equal(t, 1, h.secRepo.countByType(security.EventValidationFailed))
	assert.Equal(t, 0, h.secRepo.countByType(security.EventFormSubmission))
}

func TestSubmit_FourthAttemptWithinWindowIsRateLimited(t *testing.T) {
	h := setupSubmitter(t)

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		result, err := h.submit("203.0.113.7", validValues(email))
		require.NoError(t, err, "attempt %d", i+1)
		require.NotNil(t, result)
	}

	result, err := h.submit("203.0.113.7", validValues("d@example.com"))

	require.Error(t, err)
	var rateLimitErr *domain.RateLimitError
	require.ErrorAs(t, err, &rateLimitErr)
	assert.Greater(t, rateLimitErr.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, rateLimitErr.RetryAfter, 5*time.Minute)

	assert.Nil(t, result)
	assert.Len(t, h.regRepo.created, 3)
	assert.Equal(t, 1, h.secRepo.countByType(security.EventRateLimitExceeded))
	// The rejected attempt never reached validation.
	assert.Equal(t, 0, h.secRepo.countByType(security.EventValidationFailed))
}

func TestSubmit_ValidSubmissionConfirms(t *testing.T) {
	h := setupSubmitter(t)

	result, err := h.submit("203.0.113.7", validValues("ada@example.com"))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, registration.StatusConfirmed, result.Registration.Status)
	assert.Contains(t, result.Message, "Spring Gala 2025")
	assert.Equal(t, 1, h.secRepo.countByType(security.EventFormSubmission))
}

func TestSubmit_SanitizesValuesBeforePersisting(t *testing.T) {
	h := setupSubmitter(t)

	values := validValues("ada@example.com")
	values["first_name"] = "  <b>Ada</b> "

	result, err := h.submit("203.0.113.7", values)

	require.NoError(t, err)
	assert.Equal(t, "Ada", result.Registration.FirstName)
}

func TestSubmit_EarlyBirdTierInsideWindow(t *testing.T) {
	h := setupSubmitter(t)

	values := validValues("ada@example.com")
	values["tier"] = "early_bird"

	result, err := h.submit("203.0.113.7", values)

	require.NoError(t, err)
	assert.Equal(t, event.TierEarlyBird, result.Registration.Tier)
	assert.Equal(t, int64(7500), result.Registration.FeeCents)
}

func TestSubmit_EarlyBirdFallsBackToRegularOutsideWindow(t *testing.T) {
	h := setupSubmitter(t)
	*h.now = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

	values := validValues("ada@example.com")
	values["tier"] = "early_bird"

	result, err := h.submit("203.0.113.7", values)

	require.NoError(t, err)
	assert.Equal(t, event.TierRegular, result.Registration.Tier)
	assert.Equal(t, int64(10000), result.Registration.FeeCents)
}

func TestSubmit_UnknownTierRejected(t *testing.T) {
	h := setupSubmitter(t)

	values := validValues("ada@example.com")
	values["tier"] = "vip"

	_, err := h.submit("203.0.113.7", values)

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "tier")
}

func TestSubmit_FullEventRejected(t *testing.T) {
	h := setupSubmitter(t)
	h.regRepo.capacity = 100

	_, err := h.submit("203.0.113.7", validValues("ada@example.com"))

	assert.ErrorIs(t, err, domain.ErrEventFull)
	assert.Equal(t, 1, h.secRepo.countByType(security.EventSubmissionFailed))
}

func TestSubmit_DuplicateEmailRejected(t *testing.T) {
	h := setupSubmitter(t)

	_, err := h.submit("203.0.113.7", validValues("ada@example.com"))
	require.NoError(t, err)

	_, err = h.submit("198.51.100.2", validValues("ada@example.com"))

	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestSubmit_DuplicateEmailInsertRaceStillRejected(t *testing.T) {
	h := setupSubmitter(t)
	h.regRepo.raceDuplicate = true

	_, err := h.submit("203.0.113.7", validValues("ada@example.com"))

	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.Empty(t, h.regRepo.created)
}

func TestSubmit_DraftEventRejected(t *testing.T) {
	h := setupSubmitter(t)
	h.event.Status = event.StatusDraft

	_, err := h.submit("203.0.113.7", validValues("ada@example.com"))

	assert.ErrorIs(t, err, domain.ErrEventNotPublished)
}

func TestSubmit_UnknownEventRejected(t *testing.T) {
	h := setupSubmitter(t)

	_, err := h.submitter.Submit(context.Background(), appregistration.SubmitInput{
		EventID:   uuid.NewString(),
		ClientKey: "203.0.113.7",
		Values:    validValues("ada@example.com"),
	})

	assert.True(t, domain.IsNotFoundError(err))
}
