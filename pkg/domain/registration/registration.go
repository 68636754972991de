package registration

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eventgate/eventgate/pkg/domain/event"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

type FieldsJSON map[string]string

func (f FieldsJSON) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

func (f *FieldsJSON) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, f)
}

type Registration struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID   uuid.UUID  `json:"event_id" gorm:"type:uuid;index;uniqueIndex:idx_event_email,priority:1"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email" gorm:"uniqueIndex:idx_event_email,priority:2"`
	Phone     string     `json:"phone"`
	Tier      event.Tier `json:"tier"`
	FeeCents  int64      `json:"fee_cents"`
	Status    Status     `json:"status"`
	ClientKey string     `json:"-" gorm:"index"`
	Extra     FieldsJSON `json:"extra,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	if r.Status == "" {
		r.Status = StatusPending
	}

	return r.Validate()
}

func (r *Registration) Validate() error {
	if r.EventID == uuid.Nil {
		return fmt.Errorf("event_id is required")
	}
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !r.Tier.Valid() {
		return fmt.Errorf("invalid pricing tier: %s", r.Tier)
	}
	switch r.Status {
	case StatusPending, StatusConfirmed, StatusFailed:
	default:
		return fmt.Errorf("invalid status: %s", r.Status)
	}
	return nil
}

func (r *Registration) TableName() string {
	return "public.registrations"
}
