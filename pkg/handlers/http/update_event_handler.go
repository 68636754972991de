package http

import (
	appevent "github.com/eventgate/eventgate/pkg/app/event"
	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/domain/event"
	"github.com/eventgate/eventgate/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type updateEventHandler struct {
	logger      *logrus.Logger
	repo        event.Repository
	invalidator appevent.CacheInvalidator
}

func NewUpdateEventHandler(
	logger *logrus.Logger,
	repo event.Repository,
	invalidator appevent.CacheInvalidator,
) Handler {
	return &updateEventHandler{
		logger:      logger,
		repo:        repo,
		invalidator: invalidator,
	}
}

func (h *updateEventHandler) Handle(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("event_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event_id"})
	}

	var req request.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to bind event request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	existing, err := h.repo.Get(c.Context(), eventID)
	if err != nil {
		if domain.IsNotFoundError(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
		}
		h.logger.WithError(err).Error("failed to get event")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get event"})
	}

	entity := req.ToEntity()
	entity.ID = existing.ID
	entity.CreatedAt = existing.CreatedAt

	if err := h.repo.Update(c.Context(), entity); err != nil {
		h.logger.WithError(err).Error("failed to update event")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Drop stale cache entries for both the new and the previous slug.
	if err := h.invalidator.Invalidate(c.Context(), entity); err != nil {
		h.logger.WithError(err).Warn("failed to invalidate event cache")
	}
	if existing.Slug != entity.Slug {
		if err := h.invalidator.Invalidate(c.Context(), existing); err != nil {
			h.logger.WithError(err).Warn("failed to invalidate event cache")
		}
	}

	return c.Status(fiber.StatusOK).JSON(entity)
}
