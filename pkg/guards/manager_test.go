package guards_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/eventgate/eventgate/pkg/config"
	"github.com/eventgate/eventgate/pkg/domain"
	"github.com/eventgate/eventgate/pkg/guards"
	"github.com/eventgate/eventgate/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGuard struct {
	name      string
	configErr error
	execErr   error
	executed  *[]string
}

func (f *fakeGuard) Name() string { return f.name }

func (f *fakeGuard) ValidateConfig(_ map[string]interface{}) error { return f.configErr }

func (f *fakeGuard) Execute(_ context.Context, _ map[string]interface{}, _ *types.Submission) error {
	if f.executed != nil {
		*f.executed = append(*f.executed, f.name)
	}
	return f.execErr
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestManager_ExecutesGuardsInOrder(t *testing.T) {
	var order []string
	manager, err := guards.NewManager(testLogger(), config.GuardsConfig{},
		&fakeGuard{name: "first", executed: &order},
		&fakeGuard{name: "second", executed: &order},
	)
	require.NoError(t, err)

	err = manager.Execute(context.Background(), &types.Submission{})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestManager_RejectsOnInvalidConfig(t *testing.T) {
	_, err := guards.NewManager(testLogger(), config.GuardsConfig{},
		&fakeGuard{name: "broken", configErr: errors.New("bad settings")},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestManager_RejectionStopsPipeline(t *testing.T) {
	var order []string
	rejection := &domain.RateLimitError{}
	manager, err := guards.NewManager(testLogger(), config.GuardsConfig{},
		&fakeGuard{name: "limiter", execErr: rejection, executed: &order},
		&fakeGuard{name: "validator", executed: &order},
	)
	require.NoError(t, err)

	err = manager.Execute(context.Background(), &types.Submission{})

	var rateLimitErr *domain.RateLimitError
	require.ErrorAs(t, err, &rateLimitErr)
	assert.Equal(t, []string{"limiter"}, order)
}

func TestManager_InfrastructureFailureWrapsSubmissionError(t *testing.T) {
	manager, err := guards.NewManager(testLogger(), config.GuardsConfig{},
		&fakeGuard{name: "limiter", execErr: errors.New("redis unreachable")},
	)
	require.NoError(t, err)

	err = manager.Execute(context.Background(), &types.Submission{})

	var submissionErr *domain.SubmissionError
	require.ErrorAs(t, err, &submissionErr)
}

func TestManager_IgnoreErrorsFailsOpen(t *testing.T) {
	var order []string
	manager, err := guards.NewManager(testLogger(), config.GuardsConfig{IgnoreErrors: true},
		&fakeGuard{name: "limiter", execErr: errors.New("redis unreachable"), executed: &order},
		&fakeGuard{name: "validator", executed: &order},
	)
	require.NoError(t, err)

	err = manager.Execute(context.Background(), &types.Submission{})
	require.NoError(t, err)
	assert.Equal(t, []string{"limiter", "validator"}, order)
}
