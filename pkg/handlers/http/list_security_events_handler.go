package http

import (
	"strconv"

	"github.com/eventgate/eventgate/pkg/domain/security"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type listSecurityEventsHandler struct {
	logger *logrus.Logger
	repo   security.Repository
}

func NewListSecurityEventsHandler(logger *logrus.Logger, repo security.Repository) Handler {
	return &listSecurityEventsHandler{
		logger: logger,
		repo:   repo,
	}
}

func (h *listSecurityEventsHandler) Handle(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit"})
		}
		limit = parsed
	}

	entities, err := h.repo.List(c.Context(), security.EventType(c.Query("type")), limit)
	if err != nil {
		h.logger.WithError(err).Error("failed to list security events")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list security events"})
	}

	return c.Status(fiber.StatusOK).JSON(entities)
}
