package registration

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, entity *Registration) error
	Get(ctx context.Context, id uuid.UUID) (*Registration, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Registration, error)
	CountConfirmed(ctx context.Context, eventID uuid.UUID) (int64, error)
	ExistsByEmail(ctx context.Context, eventID uuid.UUID, email string) (bool, error)
}
