package http

import (
	appevent "github.com/eventgate/eventgate/pkg/app/event"
	"github.com/eventgate/eventgate/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type createEventHandler struct {
	logger  *logrus.Logger
	creator appevent.Creator
}

func NewCreateEventHandler(logger *logrus.Logger, creator appevent.Creator) Handler {
	return &createEventHandler{
		logger:  logger,
		creator: creator,
	}
}

func (h *createEventHandler) Handle(c *fiber.Ctx) error {
	var req request.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to bind event request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	entity := req.ToEntity()
	if err := h.creator.Create(c.Context(), entity); err != nil {
		h.logger.WithError(err).Error("failed to create event")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(entity)
}
