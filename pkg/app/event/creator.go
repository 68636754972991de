package event

import (
	"context"
	"fmt"

	"github.com/eventgate/eventgate/pkg/domain/event"
	"github.com/sirupsen/logrus"
)

type Creator interface {
	Create(ctx context.Context, entity *event.Event) error
}

type creator struct {
	repo   event.Repository
	logger *logrus.Logger
}

func NewCreator(repository event.Repository, logger *logrus.Logger) Creator {
	return &creator{
		repo:   repository,
		logger: logger,
	}
}

func (c *creator) Create(ctx context.Context, entity *event.Event) error {
	if err := entity.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	if err := c.repo.Create(ctx, entity); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"event_id": entity.ID,
		"slug":     entity.Slug,
	}).Info("event created")

	return nil
}
