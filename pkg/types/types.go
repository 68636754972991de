package types

import (
	"regexp"

	"github.com/google/uuid"
)

// Rule describes the constraints applied to a single form field.
// Kinds are evaluated in a fixed order: required, length bounds, pattern.
type Rule struct {
	Required  bool
	MinLength *int
	MaxLength *int
	Pattern   *regexp.Regexp
	// Label is the human-readable field name used in messages.
	Label string
	// PatternMessage overrides the generic message for a pattern failure.
	PatternMessage string
}

// RuleSet maps field names to their rules.
type RuleSet map[string]Rule

// Submission is the mutable context threaded through the guard pipeline.
// Guards may rewrite Values (sanitization) or reject the submission by
// returning a typed domain error.
type Submission struct {
	EventID   uuid.UUID
	ClientKey string
	UserAgent string
	Values    map[string]string
	Rules     RuleSet
	Metadata  map[string]interface{}
}

func (s *Submission) SetMetadata(key string, value interface{}) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]interface{})
	}
	s.Metadata[key] = value
}

func IntPtr(v int) *int {
	return &v
}
