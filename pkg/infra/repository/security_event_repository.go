package repository

import (
	"context"
	"fmt"

	"github.com/eventgate/eventgate/pkg/domain/security"
	"gorm.io/gorm"
)

type SecurityEventRepository struct {
	db *gorm.DB
}

func NewSecurityEventRepository(db *gorm.DB) security.Repository {
	return &SecurityEventRepository{
		db: db,
	}
}

func (r *SecurityEventRepository) Create(ctx context.Context, entity *security.Event) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("create security event: %w", err)
	}
	return nil
}

func (r *SecurityEventRepository) List(ctx context.Context, eventType security.EventType, limit int) ([]security.Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := r.db.WithContext(ctx).Order("created_at desc").Limit(limit)
	if eventType != "" {
		query = query.Where("type = ?", eventType)
	}

	var entities []security.Event
	if err := query.Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("list security events: %w", err)
	}
	return entities, nil
}
