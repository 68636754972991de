package guards

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventgate/eventgate/pkg/config"
	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/guardiface"
	"github.com/eventgate/eventgate/pkg/types"
	"github.com/sirupsen/logrus"
)

// Manager runs the guard pipeline over a submission in registration order.
// A typed rejection from a guard stops the pipeline and reaches the caller
// as-is; infrastructure failures either stop the pipeline or, when
// ignore_errors is set, fail open with a log line.
type Manager struct {
	logger       *logrus.Logger
	guards       []guardiface.Guard
	settings     map[string]map[string]interface{}
	ignoreErrors bool
}

func NewManager(logger *logrus.Logger, cfg config.GuardsConfig, guards ...guardiface.Guard) (*Manager, error) {
	for _, guard := range guards {
		if err := guard.ValidateConfig(cfg.Settings[guard.Name()]); err != nil {
			return nil, fmt.Errorf("guard %s: %w", guard.Name(), err)
		}
	}
	return &Manager{
		logger:       logger,
		guards:       guards,
		settings:     cfg.Settings,
		ignoreErrors: cfg.IgnoreErrors,
	}, nil
}

func (m *Manager) Execute(ctx context.Context, sub *types.Submission) error {
	for _, guard := range m.guards {
		err := guard.Execute(ctx, m.settings[guard.Name()], sub)
		if err == nil {
			continue
		}
		if isRejection(err) {
			return err
		}
		m.logger.WithError(err).WithField("guard", guard.Name()).
			Error("guard execution failed")
		if m.ignoreErrors {
			continue
		}
		return &domain.SubmissionError{Err: err}
	}
	return nil
}

// isRejection separates deliberate guard verdicts from infrastructure
// failures such as an unreachable store.
func isRejection(err error) bool {
	var validationErr *domain.ValidationError
	var rateLimitErr *domain.RateLimitError
	return errors.As(err, &validationErr) ||
		errors.As(err, &rateLimitErr) ||
		errors.Is(err, domain.ErrSuspiciousActivity)
}
