package ai

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)

func breakerConfig(enabled bool) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider: config.ProviderOpenRouter,
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          enabled,
			MaxRequests:      1,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      2,
			FailureThreshold: 0.5,
		},
	}
}

func TestDisabledCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("Evaluate", breakerConfig(false), testLogger)
	assert.Nil(t, cb)

	calls := 0
	reply, err := cb.Execute(func() (*Reply, error) {
		calls++
		return &Reply{Text: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)
	assert.Equal(t, 1, calls)
	assert.True(t, cb.IsHealthy())
	assert.Equal(t, map[string]any{"enabled": false}, cb.GetStats())
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("Evaluate", breakerConfig(true), testLogger)
	require.NotNil(t, cb)
	assert.Equal(t, "AI-Evaluate", cb.GetStats()["name"])

	upstream := errors.NewModelCallError(errors.ErrCodeAIServiceFailed, "upstream failed", 500, nil)
	calls := 0
	failing := func() (*Reply, error) {
		calls++
		return nil, upstream
	}

	for range 2 {
		_, err := cb.Execute(failing)
		assert.ErrorIs(t, err, upstream)
	}
	assert.False(t, cb.IsHealthy())
	assert.Equal(t, "open", cb.GetStats()["state"])

	_, err := cb.Execute(failing)
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAIUnavailable, appErr.Code)
	assert.Equal(t, 503, errors.HTTPStatus(err))
	assert.Equal(t, 2, calls, "an open circuit must not reach the upstream")
}

func TestCircuitBreakerIgnoresCallerErrors(t *testing.T) {
	cb := NewCircuitBreaker("Summary", breakerConfig(true), testLogger)

	for range 3 {
		_, err := cb.Execute(func() (*Reply, error) {
			return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "no key", nil)
		})
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	}
	assert.True(t, cb.IsHealthy())
}

func TestIndependentCircuitBreakers(t *testing.T) {
	evaluate := NewCircuitBreaker("Evaluate", breakerConfig(true), testLogger)
	analyze := NewCircuitBreaker("AnalyzeResume", breakerConfig(true), testLogger)

	for range 2 {
		_, _ = evaluate.Execute(func() (*Reply, error) {
			return nil, errors.NewModelCallError(errors.ErrCodeAIServiceFailed, "down", 502, nil)
		})
	}

	assert.False(t, evaluate.IsHealthy())
	assert.True(t, analyze.IsHealthy())
	assert.Equal(t, "AI-AnalyzeResume", analyze.GetStats()["name"])
}
