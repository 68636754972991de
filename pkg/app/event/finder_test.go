package event_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	appevent "github.com/eventgate/eventgate/pkg/app/event"
	"github.com/eventgate/eventgate/pkg/cache"
	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/domain/event"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEventRepo struct {
	entity *event.Event
	gets   int
}

func (r *countingEventRepo) Create(_ context.Context, _ *event.Event) error { return nil }

func (r *countingEventRepo) Get(_ context.Context, id uuid.UUID) (*event.Event, error) {
	r.gets++
	if r.entity == nil || r.entity.ID != id {
		return nil, domain.NewNotFoundError("event", id)
	}
	return r.entity, nil
}

func (r *countingEventRepo) GetBySlug(_ context.Context, slug string) (*event.Event, error) {
	r.gets++
	if r.entity == nil || r.entity.Slug != slug {
		return nil, domain.NewNotFoundError("event", uuid.Nil)
	}
	return r.entity, nil
}

func (r *countingEventRepo) List(_ context.Context) ([]event.Event, error) { return nil, nil }

func (r *countingEventRepo) Update(_ context.Context, _ *event.Event) error { return nil }

func setupFinder(t *testing.T) (appevent.Finder, *countingEventRepo) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := &countingEventRepo{
		entity: &event.Event{
			ID:       uuid.New(),
			Title:    "Spring Gala 2025",
			Slug:     "spring-gala-2025",
			Format:   event.FormatVirtual,
			Status:   event.StatusPublished,
			StartsAt: time.Date(2025, 4, 1, 18, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2025, 4, 1, 23, 0, 0, 0, time.UTC),
			Capacity: 500,
		},
	}

	return appevent.NewFinder(repo, cache.NewCacheWithClient(client), logger), repo
}

func TestFinder_FindCachesAfterFirstRead(t *testing.T) {
	finder, repo := setupFinder(t)
	ctx := context.Background()

	first, err := finder.Find(ctx, repo.entity.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spring Gala 2025", first.Title)
	assert.Equal(t, 1, repo.gets)

	second, err := finder.Find(ctx, repo.entity.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.gets, "second read should hit the cache")
}

func TestFinder_FindBySlug(t *testing.T) {
	finder, repo := setupFinder(t)
	ctx := context.Background()

	entity, err := finder.FindBySlug(ctx, "spring-gala-2025")
	require.NoError(t, err)
	assert.Equal(t, repo.entity.ID, entity.ID)
}

func TestFinder_UnknownEvent(t *testing.T) {
	finder, _ := setupFinder(t)

	_, err := finder.Find(context.Background(), uuid.New())
	assert.True(t, domain.IsNotFoundError(err))
}
