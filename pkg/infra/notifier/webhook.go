package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eventgate/eventgate/pkg/domain/registration"
	"github.com/eventgate/eventgate/pkg/infra/httpx"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

// Notifier dispatches a confirmation for an accepted registration.
// Dispatch is best effort: failures are reported to the caller for logging
// but must never fail the submission itself.
type Notifier interface {
	NotifyConfirmation(ctx context.Context, eventTitle string, entity *registration.Registration) error
}

type webhookNotifier struct {
	logger  *logrus.Logger
	client  *fasthttp.Client
	breaker httpx.CircuitBreaker
	url     string
	timeout time.Duration
}

type confirmationPayload struct {
	RegistrationID string `json:"registration_id"`
	EventTitle     string `json:"event_title"`
	Email          string `json:"email"`
	Tier           string `json:"tier"`
	FeeCents       int64  `json:"fee_cents"`
}

func NewWebhookNotifier(
	logger *logrus.Logger,
	url string,
	timeout time.Duration,
	maxFailures uint32,
) Notifier {
	return &webhookNotifier{
		logger: logger,
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		breaker: httpx.NewCircuitBreaker("confirmation_webhook", 30*time.Second, maxFailures),
		url:     url,
		timeout: timeout,
	}
}

func (n *webhookNotifier) NotifyConfirmation(
	ctx context.Context,
	eventTitle string,
	entity *registration.Registration,
) error {
	if n.url == "" {
		return nil
	}

	body, err := json.Marshal(confirmationPayload{
		RegistrationID: entity.ID.String(),
		EventTitle:     eventTitle,
		Email:          entity.Email,
		Tier:           string(entity.Tier),
		FeeCents:       entity.FeeCents,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation payload: %w", err)
	}

	return n.breaker.Execute(func() error {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(n.url)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(body)

		if err := n.client.DoTimeout(req, resp, n.timeout); err != nil {
			return fmt.Errorf("webhook request failed: %w", err)
		}

		if resp.StatusCode() >= 300 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode())
		}
		return nil
	})
}

// NoopNotifier is used when no webhook is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyConfirmation(context.Context, string, *registration.Registration) error {
	return nil
}
