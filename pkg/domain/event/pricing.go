package event

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Tier is the explicit set of pricing variants an event can offer.
type Tier string

const (
	TierMember    Tier = "member"
	TierStudent   Tier = "student"
	TierEarlyBird Tier = "early_bird"
	TierRegular   Tier = "regular"
)

func (t Tier) Valid() bool {
	switch t {
	case TierMember, TierStudent, TierEarlyBird, TierRegular:
		return true
	}
	return false
}

// EarlyBirdWindow is the date range during which the early_bird amount
// applies. The window is half-open: [OpensAt, ClosesAt).
type EarlyBirdWindow struct {
	OpensAt  time.Time `json:"opens_at"`
	ClosesAt time.Time `json:"closes_at"`
}

func (w EarlyBirdWindow) Contains(at time.Time) bool {
	return !at.Before(w.OpensAt) && at.Before(w.ClosesAt)
}

// Pricing maps each offered tier to an amount in cents. Tiers without an
// amount are not offered for the event.
type Pricing struct {
	AmountsCents map[Tier]int64   `json:"amounts_cents"`
	EarlyBird    *EarlyBirdWindow `json:"early_bird,omitempty"`
	Currency     string           `json:"currency"`
}

// FeeFor resolves the fee for a requested tier at submission time.
// early_bird resolves only inside its window; outside it the regular
// amount applies instead.
func (p Pricing) FeeFor(tier Tier, at time.Time) (int64, Tier, error) {
	if !tier.Valid() {
		return 0, "", fmt.Errorf("unknown pricing tier: %s", tier)
	}

	if tier == TierEarlyBird {
		if p.EarlyBird == nil || !p.EarlyBird.Contains(at) {
			tier = TierRegular
		}
	}

	amount, ok := p.AmountsCents[tier]
	if !ok {
		return 0, "", fmt.Errorf("tier %s is not offered for this event", tier)
	}
	return amount, tier, nil
}

func (p Pricing) Validate() error {
	if len(p.AmountsCents) == 0 {
		return fmt.Errorf("pricing requires at least one tier amount")
	}
	for tier, amount := range p.AmountsCents {
		if !tier.Valid() {
			return fmt.Errorf("unknown pricing tier: %s", tier)
		}
		if amount < 0 {
			return fmt.Errorf("negative amount for tier %s", tier)
		}
	}
	if _, ok := p.AmountsCents[TierRegular]; !ok {
		return fmt.Errorf("pricing requires a regular tier amount")
	}
	if _, ok := p.AmountsCents[TierEarlyBird]; ok && p.EarlyBird == nil {
		return fmt.Errorf("early_bird amount requires an early_bird window")
	}
	if p.EarlyBird != nil && !p.EarlyBird.ClosesAt.After(p.EarlyBird.OpensAt) {
		return fmt.Errorf("early_bird window must close after it opens")
	}
	return nil
}

// PricingJSON stores Pricing as a jsonb column.
type PricingJSON Pricing

func (p PricingJSON) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PricingJSON) Scan(value interface{}) error {
	if value == nil {
		*p = PricingJSON{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, p)
}
