package ai

import (
	stderrors "errors"
	"fmt"

	"resumatch/internal/config"
	"resumatch/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker short-circuits model calls while the upstream keeps failing.
// It never repeats a call.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[*Reply]
}

// NewCircuitBreaker returns nil when the breaker is disabled for the operation
func NewCircuitBreaker(operationType string, cfg *config.OperationAIConfig, logger *errors.Logger) *CircuitBreaker {
	if !cfg.CircuitBreaker.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-%s", operationType),
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    cfg.CircuitBreaker.Interval,
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.CircuitBreaker.MinRequests &&
				failureRatio >= cfg.CircuitBreaker.FailureThreshold
		},
		// Caller mistakes say nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.IsType(err, errors.ErrorTypeValidation) || errors.IsType(err, errors.ErrorTypeConfig)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation_type", operationType,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.CircuitBreaker.MaxRequests,
				"failure_threshold", cfg.CircuitBreaker.FailureThreshold)
		},
	}

	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[*Reply](settings),
	}
}

// Execute runs fn unless the circuit is open
func (cb *CircuitBreaker) Execute(fn func() (*Reply, error)) (*Reply, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}

	reply, err := cb.cb.Execute(fn)
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.NewModelCallError(errors.ErrCodeAIUnavailable,
			"AI service is temporarily unavailable", 0, err).
			WithContext("breaker", cb.cb.Name())
	}
	return reply, err
}

// GetStats returns circuit breaker statistics
func (cb *CircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *CircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}
