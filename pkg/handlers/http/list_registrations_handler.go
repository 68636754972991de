package http

import (
	"github.com/eventgate/eventgate/pkg/domain/registration"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type listRegistrationsHandler struct {
	logger *logrus.Logger
	repo   registration.Repository
}

func NewListRegistrationsHandler(logger *logrus.Logger, repo registration.Repository) Handler {
	return &listRegistrationsHandler{
		logger: logger,
		repo:   repo,
	}
}

func (h *listRegistrationsHandler) Handle(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("event_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event_id"})
	}

	entities, err := h.repo.ListByEvent(c.Context(), eventID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list registrations")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list registrations"})
	}

	confirmed, err := h.repo.CountConfirmed(c.Context(), eventID)
	if err != nil {
		h.logger.WithError(err).Error("failed to count registrations")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to count registrations"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"registrations": entities,
		"confirmed":     confirmed,
	})
}
