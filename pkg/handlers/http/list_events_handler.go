package http

import (
	"github.com/eventgate/eventgate/pkg/domain/event"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type listEventsHandler struct {
	logger        *logrus.Logger
	repo          event.Repository
	includeDrafts bool
}

// NewListEventsHandler lists events. The public instance only returns
// published events; the admin instance returns everything.
func NewListEventsHandler(logger *logrus.Logger, repo event.Repository, includeDrafts bool) Handler {
	return &listEventsHandler{
		logger:        logger,
		repo:          repo,
		includeDrafts: includeDrafts,
	}
}

func (h *listEventsHandler) Handle(c *fiber.Ctx) error {
	entities, err := h.repo.List(c.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to list events")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list events"})
	}

	if !h.includeDrafts {
		published := make([]event.Event, 0, len(entities))
		for _, e := range entities {
			if e.Status == event.StatusPublished {
				published = append(published, e)
			}
		}
		entities = published
	}

	return c.Status(fiber.StatusOK).JSON(entities)
}
