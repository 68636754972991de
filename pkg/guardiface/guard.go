package guardiface

import (
	"context"

	"github.com/eventgate/eventgate/pkg/types"
)

// Guard is a single stage of the submission pipeline. Execute mutates the
// submission in place or rejects it with a typed domain error; any other
// error is an infrastructure failure.
type Guard interface {
	Name() string
	// ValidateConfig checks the guard's settings map at startup so
	// misconfiguration fails fast instead of on the first submission.
	ValidateConfig(settings map[string]interface{}) error
	Execute(ctx context.Context, settings map[string]interface{}, sub *types.Submission) error
}
