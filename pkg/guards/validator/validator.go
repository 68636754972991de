package validator

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/types"
)

const (
	GuardName = "validator"
)

// Result is the outcome of validating one submission against a rule set.
// Valid is true exactly when Errors is empty.
type Result struct {
	Valid  bool
	Errors map[string]string
}

// Validate applies each field's rules in a fixed order: required, then
// length bounds, then pattern. The first failing rule of a field wins, but
// every field is evaluated so errors accumulate across fields. Pure and
// deterministic.
func Validate(values map[string]string, rules types.RuleSet) Result {
	errs := make(map[string]string)

	for field, rule := range rules {
		value := strings.TrimSpace(values[field])
		label := rule.Label
		if label == "" {
			label = humanize(field)
		}

		if rule.Required && value == "" {
			errs[field] = fmt.Sprintf("%s is required", label)
			continue
		}
		if value == "" {
			// Optional and absent: remaining rules do not apply.
			continue
		}
		// Length bounds count characters, not bytes.
		length := utf8.RuneCountInString(value)
		if rule.MinLength != nil && length < *rule.MinLength {
			errs[field] = fmt.Sprintf("%s must be at least %d characters", label, *rule.MinLength)
			continue
		}
		if rule.MaxLength != nil && length > *rule.MaxLength {
			errs[field] = fmt.Sprintf("%s must be at most %d characters", label, *rule.MaxLength)
			continue
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
			if rule.PatternMessage != "" {
				errs[field] = rule.PatternMessage
			} else {
				errs[field] = fmt.Sprintf("%s is invalid", label)
			}
		}
	}

	return Result{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

func humanize(field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Name() string {
	return GuardName
}

func (v *Validator) ValidateConfig(_ map[string]interface{}) error {
	return nil
}

func (v *Validator) Execute(_ context.Context, _ map[string]interface{}, sub *types.Submission) error {
	result := Validate(sub.Values, sub.Rules)
	if !result.Valid {
		return &domain.ValidationError{Fields: result.Errors}
	}
	return nil
}
