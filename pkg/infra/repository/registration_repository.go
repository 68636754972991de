package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/domain/registration"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) registration.Repository {
	return &RegistrationRepository{
		db: db,
	}
}

func (r *RegistrationRepository) Create(ctx context.Context, entity *registration.Registration) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) Get(ctx context.Context, id uuid.UUID) (*registration.Registration, error) {
	var entity registration.Registration
	result := r.db.WithContext(ctx).First(&entity, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("registration", id)
		}
		return nil, fmt.Errorf("registration: %w", result.Error)
	}
	return &entity, nil
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]registration.Registration, error) {
	var entities []registration.Registration
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at desc").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return entities, nil
}

func (r *RegistrationRepository) CountConfirmed(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&registration.Registration{}).
		Where("event_id = ? AND status = ?", eventID, registration.StatusConfirmed).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

func (r *RegistrationRepository) ExistsByEmail(ctx context.Context, eventID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&registration.Registration{}).
		Where("event_id = ? AND email = ?", eventID, email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("registration lookup: %w", err)
	}
	return count > 0, nil
}
