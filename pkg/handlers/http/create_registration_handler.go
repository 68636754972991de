package http

import (
	"errors"
	"math"
	"strconv"

	"github.com/eventgate/eventgate/pkg/app/registration"
	"github.com/eventgate/eventgate/pkg/common"
	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type createRegistrationHandler struct {
	logger    *logrus.Logger
	submitter registration.Submitter
}

func NewCreateRegistrationHandler(
	logger *logrus.Logger,
	submitter registration.Submitter,
) Handler {
	return &createRegistrationHandler{
		logger:    logger,
		submitter: submitter,
	}
}

func (h *createRegistrationHandler) Handle(c *fiber.Ctx) error {
	var req request.CreateRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to bind registration request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	key := clientKey(c)
	c.Locals(common.ClientKeyContextKey, key)
	c.Locals(common.EventContextKey, c.Params("event_id"))

	result, err := h.submitter.Submit(c.Context(), registration.SubmitInput{
		EventID:   c.Params("event_id"),
		ClientKey: key,
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Values:    req.ToValues(),
	})
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"registration": result.Registration,
		"message":      result.Message,
	})
}

func (h *createRegistrationHandler) mapError(c *fiber.Ctx, err error) error {
	var validationErr *domain.ValidationError
	var rateLimitErr *domain.RateLimitError
	var submissionErr *domain.SubmissionError

	switch {
	case errors.As(err, &rateLimitErr):
		retryAfter := int(math.Ceil(rateLimitErr.RetryAfter.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":       "too many attempts, please wait before trying again",
			"retry_after": retryAfter,
		})
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
	case errors.Is(err, domain.ErrSuspiciousActivity):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "submission could not be processed, please try again later",
		})
	case errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrEventFull),
		errors.Is(err, domain.ErrEventNotPublished):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case domain.IsNotFoundError(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
	case errors.As(err, &submissionErr):
		h.logger.WithError(err).WithFields(logrus.Fields{
			"trace_id": c.Locals(common.TraceIdKey),
			"event_id": c.Locals(common.EventContextKey),
		}).Error("registration submission failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "submission failed, please try again or contact support",
		})
	default:
		h.logger.WithError(err).WithField("trace_id", c.Locals(common.TraceIdKey)).
			Error("unexpected submission error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "submission failed, please try again or contact support",
		})
	}
}

// clientKey identifies the submitting client for rate limiting and the
// security log. Proxy headers win over the socket address.
func clientKey(c *fiber.Ctx) string {
	for _, header := range []string{"X-Real-IP", "X-Forwarded-For", "True-Client-IP", "CF-Connecting-IP"} {
		if value := c.Get(header); value != "" {
			return value
		}
	}
	return c.IP()
}
