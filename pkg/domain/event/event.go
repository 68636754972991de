package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Format string

const (
	FormatVirtual  Format = "virtual"
	FormatInPerson Format = "in_person"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusClosed    Status = "closed"
)

type Event struct {
	ID           uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug" gorm:"uniqueIndex"`
	Description  string      `json:"description"`
	Format       Format      `json:"format"`
	Status       Status      `json:"status"`
	StartsAt     time.Time   `json:"starts_at"`
	EndsAt       time.Time   `json:"ends_at"`
	Location     string      `json:"location,omitempty"`
	StreamingURL string      `json:"streaming_url,omitempty"`
	Capacity     int         `json:"capacity"`
	Pricing      PricingJSON `json:"pricing" gorm:"type:jsonb"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	return e.Validate()
}

func (e *Event) BeforeUpdate(tx *gorm.DB) error {
	e.UpdatedAt = time.Now()
	return e.Validate()
}

func (e *Event) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}

	if e.Slug == "" {
		return fmt.Errorf("slug is required")
	}

	switch e.Format {
	case FormatVirtual, FormatInPerson:
	default:
		return fmt.Errorf("format must be 'virtual' or 'in_person'")
	}

	if e.Status == "" {
		e.Status = StatusDraft
	}

	if e.Format == FormatInPerson && e.Location == "" {
		return fmt.Errorf("location is required for in-person events")
	}

	if !e.EndsAt.After(e.StartsAt) {
		return fmt.Errorf("event must end after it starts")
	}

	if e.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive")
	}

	if err := Pricing(e.Pricing).Validate(); err != nil {
		return fmt.Errorf("invalid pricing: %w", err)
	}

	return nil
}

// AcceptsRegistrations reports whether a submission may be attempted at all.
func (e *Event) AcceptsRegistrations(at time.Time) bool {
	return e.Status == StatusPublished && at.Before(e.StartsAt)
}

func (e *Event) TableName() string {
	return "public.events"
}
