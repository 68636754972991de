package event

import (
	"context"
	"fmt"

	"github.com/eventgate/eventgate/pkg/cache"
	"github.com/eventgate/eventgate/pkg/domain/event"
)

type CacheInvalidator interface {
	Invalidate(ctx context.Context, entity *event.Event) error
}

type cacheInvalidator struct {
	cache *cache.Cache
}

func NewCacheInvalidator(c *cache.Cache) CacheInvalidator {
	return &cacheInvalidator{cache: c}
}

// Invalidate drops both lookup keys for the event so the next read goes to
// the database.
func (i *cacheInvalidator) Invalidate(ctx context.Context, entity *event.Event) error {
	idKey := fmt.Sprintf(cache.EventKeyPattern, entity.ID.String())
	if err := i.cache.Delete(ctx, idKey); err != nil {
		return fmt.Errorf("failed to invalidate event cache: %w", err)
	}

	slugKey := fmt.Sprintf(cache.EventSlugKeyPattern, entity.Slug)
	if err := i.cache.Delete(ctx, slugKey); err != nil {
		return fmt.Errorf("failed to invalidate event slug cache: %w", err)
	}
	return nil
}
