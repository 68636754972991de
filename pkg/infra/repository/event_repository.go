package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/domain/event"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) event.Repository {
	return &EventRepository{
		db: db,
	}
}

func (r *EventRepository) Create(ctx context.Context, entity *event.Event) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) Get(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	var entity event.Event
	result := r.db.WithContext(ctx).First(&entity, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("event", id)
		}
		return nil, fmt.Errorf("event: %w", result.Error)
	}
	return &entity, nil
}

func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*event.Event, error) {
	var entity event.Event
	result := r.db.WithContext(ctx).First(&entity, "slug = ?", slug)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("event", uuid.Nil)
		}
		return nil, fmt.Errorf("event: %w", result.Error)
	}
	return &entity, nil
}

func (r *EventRepository) List(ctx context.Context) ([]event.Event, error) {
	var entities []event.Event
	if err := r.db.WithContext(ctx).Order("starts_at").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return entities, nil
}

func (r *EventRepository) Update(ctx context.Context, entity *event.Event) error {
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}
