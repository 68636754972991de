package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	appevent "github.com/eventgate/eventgate/pkg/app/event"
	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/domain/event"
	"github.com/eventgate/eventgate/pkg/domain/registration"
	"github.com/eventgate/eventgate/pkg/domain/security"
	"github.com/eventgate/eventgate/pkg/guards"
	"github.com/eventgate/eventgate/pkg/guards/securitymonitor"
	"github.com/eventgate/eventgate/pkg/infra/notifier"
	"github.com/eventgate/eventgate/pkg/infra/prometheus"
	"github.com/eventgate/eventgate/pkg/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Submitter runs a registration submission end to end: guard pipeline,
// capacity and duplicate checks, tier resolution, persistence and the
// confirmation dispatch. Every rejected or accepted attempt leaves a
// security event behind.
type Submitter interface {
	Submit(ctx context.Context, input SubmitInput) (*Result, error)
}

type SubmitInput struct {
	EventID   string
	ClientKey string
	UserAgent string
	Values    map[string]string
}

type Result struct {
	Registration *registration.Registration
	EventTitle   string
	Message      string
}

type submitter struct {
	finder       appevent.Finder
	repo         registration.Repository
	guards       *guards.Manager
	monitor      *securitymonitor.Monitor
	notifier     notifier.Notifier
	logger       *logrus.Logger
	timeProvider func() time.Time
}

type SubmitterOpts struct {
	TimeProvider func() time.Time
}

func NewSubmitter(
	finder appevent.Finder,
	repo registration.Repository,
	guardManager *guards.Manager,
	monitor *securitymonitor.Monitor,
	n notifier.Notifier,
	logger *logrus.Logger,
	opts *SubmitterOpts,
) Submitter {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	return &submitter{
		finder:       finder,
		repo:         repo,
		guards:       guardManager,
		monitor:      monitor,
		notifier:     n,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

func (s *submitter) Submit(ctx context.Context, input SubmitInput) (*Result, error) {
	eventID, err := parseEventID(input.EventID)
	if err != nil {
		return nil, &domain.ValidationError{Fields: map[string]string{
			"event_id": "Event ID must be a valid UUID",
		}}
	}

	entity, err := s.finder.Find(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := s.timeProvider()
	if !entity.AcceptsRegistrations(now) {
		return nil, domain.ErrEventNotPublished
	}

	sub := &types.Submission{
		EventID:   entity.ID,
		ClientKey: input.ClientKey,
		UserAgent: input.UserAgent,
		Values:    copyValues(input.Values),
		Rules:     event.RegistrationRules(entity.Format),
	}

	if err := s.guards.Execute(ctx, sub); err != nil {
		s.recordRejection(ctx, sub, err)
		s.countSubmission(entity.ID.String(), "rejected")
		return nil, err
	}

	result, err := s.persist(ctx, entity, sub, now)
	if err != nil {
		s.countSubmission(entity.ID.String(), "failed")
		return nil, err
	}

	s.monitor.LogEvent(ctx, security.EventFormSubmission, sub.ClientKey, map[string]interface{}{
		"event_id":        entity.ID.String(),
		"registration_id": result.Registration.ID.String(),
	})
	s.countSubmission(entity.ID.String(), "confirmed")

	if err := s.notifier.NotifyConfirmation(ctx, entity.Title, result.Registration); err != nil {
		s.logger.WithError(err).WithField("registration_id", result.Registration.ID).
			Warn("failed to dispatch confirmation")
	}

	return result, nil
}

func (s *submitter) persist(
	ctx context.Context,
	entity *event.Event,
	sub *types.Submission,
	now time.Time,
) (*Result, error) {
	confirmed, err := s.repo.CountConfirmed(ctx, entity.ID)
	if err != nil {
		s.recordFailure(ctx, sub, err)
		return nil, &domain.SubmissionError{Err: err}
	}
	if confirmed >= int64(entity.Capacity) {
		s.recordFailure(ctx, sub, domain.ErrEventFull)
		return nil, domain.ErrEventFull
	}

	exists, err := s.repo.ExistsByEmail(ctx, entity.ID, sub.Values["email"])
	if err != nil {
		s.recordFailure(ctx, sub, err)
		return nil, &domain.SubmissionError{Err: err}
	}
	if exists {
		s.recordFailure(ctx, sub, domain.ErrDuplicateEmail)
		return nil, domain.ErrDuplicateEmail
	}

	tier := event.Tier(sub.Values["tier"])
	if sub.Values["tier"] == "" {
		tier = event.TierRegular
	}
	fee, resolvedTier, err := event.Pricing(entity.Pricing).FeeFor(tier, now)
	if err != nil {
		validationErr := &domain.ValidationError{Fields: map[string]string{
			"tier": err.Error(),
		}}
		s.recordRejection(ctx, sub, validationErr)
		return nil, validationErr
	}

	reg := &registration.Registration{
		EventID:   entity.ID,
		FirstName: sub.Values["first_name"],
		LastName:  sub.Values["last_name"],
		Email:     sub.Values["email"],
		Phone:     sub.Values["phone"],
		Tier:      resolvedTier,
		FeeCents:  fee,
		Status:    registration.StatusConfirmed,
		ClientKey: sub.ClientKey,
		Extra:     extraFields(sub.Values),
	}

	// The unique index still catches the race between the lookup above and
	// the insert.
	if err := s.repo.Create(ctx, reg); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			s.recordFailure(ctx, sub, err)
			return nil, err
		}
		s.recordFailure(ctx, sub, err)
		return nil, &domain.SubmissionError{Err: err}
	}

	return &Result{
		Registration: reg,
		EventTitle:   entity.Title,
		Message:      fmt.Sprintf("You are registered for %s. A confirmation has been sent to %s.", entity.Title, reg.Email),
	}, nil
}

func (s *submitter) recordRejection(ctx context.Context, sub *types.Submission, err error) {
	var validationErr *domain.ValidationError
	var rateLimitErr *domain.RateLimitError

	switch {
	case errors.As(err, &rateLimitErr):
		s.monitor.LogEvent(ctx, security.EventRateLimitExceeded, sub.ClientKey, map[string]interface{}{
			"event_id":    sub.EventID.String(),
			"retry_after": rateLimitErr.RetryAfter.String(),
		})
	case errors.As(err, &validationErr):
		s.monitor.LogEvent(ctx, security.EventValidationFailed, sub.ClientKey, map[string]interface{}{
			"event_id": sub.EventID.String(),
			"fields":   fieldNames(validationErr.Fields),
		})
	case errors.Is(err, domain.ErrSuspiciousActivity):
		s.monitor.LogEvent(ctx, security.EventSuspiciousActivity, sub.ClientKey, map[string]interface{}{
			"event_id": sub.EventID.String(),
		})
	default:
		s.recordFailure(ctx, sub, err)
	}
}

func (s *submitter) recordFailure(ctx context.Context, sub *types.Submission, err error) {
	s.monitor.LogEvent(ctx, security.EventSubmissionFailed, sub.ClientKey, map[string]interface{}{
		"event_id": sub.EventID.String(),
		"reason":   err.Error(),
	})
}

func (s *submitter) countSubmission(eventID, outcome string) {
	label := "all"
	if prometheus.Config.EnablePerEvent {
		label = eventID
	}
	prometheus.SubmissionTotal.WithLabelValues(label, outcome).Inc()
}

func parseEventID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid event id: %w", err)
	}
	return id, nil
}

func fieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}

// extraFields keeps format-specific answers that have no dedicated column.
func extraFields(values map[string]string) registration.FieldsJSON {
	known := map[string]struct{}{
		"first_name": {}, "last_name": {}, "email": {}, "phone": {}, "tier": {},
	}
	extra := make(registration.FieldsJSON)
	for key, value := range values {
		if _, ok := known[key]; ok {
			continue
		}
		if value != "" {
			extra[key] = value
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}

func copyValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}
