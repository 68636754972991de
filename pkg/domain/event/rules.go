package event

import (
	"regexp"

	"github.com/eventgate/eventgate/pkg/types"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)
)

// RegistrationRules returns the validation rule set for a registration
// against an event of the given format. In-person events collect dietary
// requirements; virtual events require a streaming-platform acknowledgement.
func RegistrationRules(format Format) types.RuleSet {
	rules := types.RuleSet{
		"first_name": {
			Required:  true,
			MinLength: types.IntPtr(2),
			MaxLength: types.IntPtr(50),
			Label:     "First name",
		},
		"last_name": {
			Required:  true,
			MinLength: types.IntPtr(2),
			MaxLength: types.IntPtr(50),
			Label:     "Last name",
		},
		"email": {
			Required:       true,
			MaxLength:      types.IntPtr(254),
			Pattern:        emailPattern,
			Label:          "Email",
			PatternMessage: "Email must be a valid email address",
		},
		"phone": {
			Pattern:        phonePattern,
			Label:          "Phone",
			PatternMessage: "Phone must be a valid phone number",
		},
	}

	switch format {
	case FormatInPerson:
		rules["dietary_requirements"] = types.Rule{
			MaxLength: types.IntPtr(200),
			Label:     "Dietary requirements",
		}
	case FormatVirtual:
		rules["platform_acknowledged"] = types.Rule{
			Required:       true,
			Pattern:        regexp.MustCompile(`^(true|yes|1)$`),
			Label:          "Platform acknowledgement",
			PatternMessage: "Platform acknowledgement must be accepted",
		}
	}

	return rules
}
