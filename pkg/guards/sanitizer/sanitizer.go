package sanitizer

import (
	"context"
	"strings"

	"github.com/eventgate/eventgate/pkg/types"
	"github.com/microcosm-cc/bluemonday"
)

const (
	GuardName = "sanitizer"
)

var quoteReplacer = strings.NewReplacer(
	`"`, "&#34;",
	"'", "&#39;",
	"`", "&#96;",
)

// Sanitizer strips markup and escapes characters that could be rendered as
// script when a field value is later displayed. Sanitize is pure, total and
// idempotent: already-sanitized input passes through unchanged.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

func (s *Sanitizer) Name() string {
	return GuardName
}

func (s *Sanitizer) ValidateConfig(_ map[string]interface{}) error {
	return nil
}

// Sanitize trims surrounding whitespace, drops all HTML elements and escapes
// residual quote characters. Entities produced by a previous pass are
// preserved, which keeps the function idempotent.
func (s *Sanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := s.policy.Sanitize(raw)
	cleaned = quoteReplacer.Replace(cleaned)
	return strings.TrimSpace(cleaned)
}

func (s *Sanitizer) Execute(_ context.Context, _ map[string]interface{}, sub *types.Submission) error {
	for field, value := range sub.Values {
		sub.Values[field] = s.Sanitize(value)
	}
	return nil
}
