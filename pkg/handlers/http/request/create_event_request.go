package request

import (
	"fmt"
	"time"

	"github.com/eventgate/eventgate/pkg/domain/event"
)

type PricingRequest struct {
	AmountsCents map[string]int64 `json:"amounts_cents"`
	EarlyBird    *struct {
		OpensAt  time.Time `json:"opens_at"`
		ClosesAt time.Time `json:"closes_at"`
	} `json:"early_bird,omitempty"`
	Currency string `json:"currency"`
}

type CreateEventRequest struct {
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Description  string         `json:"description"`
	Format       string         `json:"format"`
	Status       string         `json:"status"`
	StartsAt     time.Time      `json:"starts_at"`
	EndsAt       time.Time      `json:"ends_at"`
	Location     string         `json:"location,omitempty"`
	StreamingURL string         `json:"streaming_url,omitempty"`
	Capacity     int            `json:"capacity"`
	Pricing      PricingRequest `json:"pricing"`
}

func (r *CreateEventRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	if r.Format != string(event.FormatVirtual) && r.Format != string(event.FormatInPerson) {
		return fmt.Errorf("format must be 'virtual' or 'in_person'")
	}
	if r.StartsAt.IsZero() || r.EndsAt.IsZero() {
		return fmt.Errorf("starts_at and ends_at are required")
	}
	if r.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive")
	}
	if len(r.Pricing.AmountsCents) == 0 {
		return fmt.Errorf("pricing.amounts_cents is required")
	}
	return nil
}

// ToEntity converts the request into a domain event. Entity-level validation
// still runs on create.
func (r *CreateEventRequest) ToEntity() *event.Event {
	amounts := make(map[event.Tier]int64, len(r.Pricing.AmountsCents))
	for tier, amount := range r.Pricing.AmountsCents {
		amounts[event.Tier(tier)] = amount
	}

	var window *event.EarlyBirdWindow
	if r.Pricing.EarlyBird != nil {
		window = &event.EarlyBirdWindow{
			OpensAt:  r.Pricing.EarlyBird.OpensAt,
			ClosesAt: r.Pricing.EarlyBird.ClosesAt,
		}
	}

	return &event.Event{
		Title:        r.Title,
		Slug:         r.Slug,
		Description:  r.Description,
		Format:       event.Format(r.Format),
		Status:       event.Status(r.Status),
		StartsAt:     r.StartsAt,
		EndsAt:       r.EndsAt,
		Location:     r.Location,
		StreamingURL: r.StreamingURL,
		Capacity:     r.Capacity,
		Pricing: event.PricingJSON{
			AmountsCents: amounts,
			EarlyBird:    window,
			Currency:     r.Pricing.Currency,
		},
	}
}
