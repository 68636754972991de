package security

import "context"

type Repository interface {
	Create(ctx context.Context, entity *Event) error
	List(ctx context.Context, eventType EventType, limit int) ([]Event, error)
}
