package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eventgate/eventgate/pkg/cache"
	"github.com/eventgate/eventgate/pkg/common"
	"github.com/eventgate/eventgate/pkg/domain/event"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type Finder interface {
	Find(ctx context.Context, eventID uuid.UUID) (*event.Event, error)
	FindBySlug(ctx context.Context, slug string) (*event.Event, error)
}

type finder struct {
	repo   event.Repository
	cache  *cache.Cache
	logger *logrus.Logger
	group  singleflight.Group
}

func NewFinder(repository event.Repository, c *cache.Cache, logger *logrus.Logger) Finder {
	return &finder{
		repo:   repository,
		cache:  c,
		logger: logger,
	}
}

func (f *finder) Find(ctx context.Context, eventID uuid.UUID) (*event.Event, error) {
	key := fmt.Sprintf(cache.EventKeyPattern, eventID.String())

	if cached, err := f.cache.Get(ctx, key); err == nil {
		entity, err := f.unmarshalEvent(cached)
		if err == nil {
			return entity, nil
		}
		f.logger.WithError(err).Debug("failed to decode cached event")
	}

	// Concurrent misses for the same event collapse into one database read.
	result, err, _ := f.group.Do(key, func() (interface{}, error) {
		entity, err := f.repo.Get(ctx, eventID)
		if err != nil {
			return nil, err
		}
		f.cacheEvent(ctx, key, entity)
		return entity, nil
	})
	if err != nil {
		return nil, err
	}

	entity, ok := result.(*event.Event)
	if !ok {
		return nil, fmt.Errorf("invalid type assertion for event data")
	}
	return entity, nil
}

func (f *finder) FindBySlug(ctx context.Context, slug string) (*event.Event, error) {
	key := fmt.Sprintf(cache.EventSlugKeyPattern, slug)

	if cached, err := f.cache.Get(ctx, key); err == nil {
		entity, err := f.unmarshalEvent(cached)
		if err == nil {
			return entity, nil
		}
		f.logger.WithError(err).Debug("failed to decode cached event")
	}

	result, err, _ := f.group.Do(key, func() (interface{}, error) {
		entity, err := f.repo.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		f.cacheEvent(ctx, key, entity)
		return entity, nil
	})
	if err != nil {
		return nil, err
	}

	entity, ok := result.(*event.Event)
	if !ok {
		return nil, fmt.Errorf("invalid type assertion for event data")
	}
	return entity, nil
}

func (f *finder) cacheEvent(ctx context.Context, key string, entity *event.Event) {
	payload, err := json.Marshal(entity)
	if err != nil {
		f.logger.WithError(err).Warn("failed to marshal event for cache")
		return
	}
	if err := f.cache.Set(ctx, key, string(payload), common.EventCacheTTL); err != nil {
		f.logger.WithError(err).Warn("failed to cache event")
	}
}

func (f *finder) unmarshalEvent(payload string) (*event.Event, error) {
	var entity event.Event
	if err := json.Unmarshal([]byte(payload), &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event from cache: %w", err)
	}
	return &entity, nil
}
