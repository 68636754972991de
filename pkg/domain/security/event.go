package security

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventType names the observable outcomes of the submission pipeline.
type EventType string

const (
	EventValidationFailed   EventType = "validation_failed"
	EventRateLimitExceeded  EventType = "rate_limit_exceeded"
	EventSuspiciousActivity EventType = "suspicious_activity"
	EventFormSubmission     EventType = "form_submission"
	EventSubmissionFailed   EventType = "submission_failed"
)

type MetadataJSON map[string]interface{}

func (m MetadataJSON) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *MetadataJSON) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// Event is one recorded observation from the submission pipeline. Rows are
// append-only; inspection happens through the admin listing endpoint.
type Event struct {
	ID        uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type      EventType    `json:"type" gorm:"index"`
	ClientKey string       `json:"client_key" gorm:"index"`
	Metadata  MetadataJSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time    `json:"created_at" gorm:"index"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Type == "" {
		return fmt.Errorf("event type is required")
	}
	return nil
}

func (e *Event) TableName() string {
	return "public.security_events"
}
