package http

import (
	appevent "github.com/eventgate/eventgate/pkg/app/event"
	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type getEventHandler struct {
	logger *logrus.Logger
	finder appevent.Finder
}

func NewGetEventHandler(logger *logrus.Logger, finder appevent.Finder) Handler {
	return &getEventHandler{
		logger: logger,
		finder: finder,
	}
}

// Handle resolves the path parameter as a UUID first, then as a slug, so
// both /events/{id} and /events/{slug} work.
func (h *getEventHandler) Handle(c *fiber.Ctx) error {
	param := c.Params("event_id")
	if param == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "event_id is required"})
	}

	if eventID, err := uuid.Parse(param); err == nil {
		entity, err := h.finder.Find(c.Context(), eventID)
		if err != nil {
			return h.mapError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(entity)
	}

	entity, err := h.finder.FindBySlug(c.Context(), param)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(entity)
}

func (h *getEventHandler) mapError(c *fiber.Ctx, err error) error {
	if domain.IsNotFoundError(err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
	}
	h.logger.WithError(err).Error("failed to get event")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get event"})
}
