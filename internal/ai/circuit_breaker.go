package ai

import (
	"errors"

	"recruitagent/internal/config"
	agentErrors "recruitagent/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// Breaker guards calls returning T. A nil *Breaker runs calls directly, which
// is what a disabled breaker is.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewAICircuitBreaker guards completions for one operation. It trips on the
// configured failure ratio and counts transient errors only.
func NewAICircuitBreaker(operationType string, cfg *config.OperationAIConfig, logger *agentErrors.Logger) *Breaker[*Completion] {
	settings, ok := breakerSettings("AI-"+operationType, cfg)
	if !ok {
		return nil
	}
	if logger == nil {
		logger = agentErrors.Nop()
	}

	threshold := cfg.CircuitBreaker
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.Requests >= threshold.MinRequests &&
			failureRatio(counts) >= threshold.FailureThreshold
	}
	settings.IsSuccessful = func(err error) bool {
		return err == nil || !isRetryableError(err)
	}
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Info("Circuit breaker state changed",
			"name", name,
			"operation_type", operationType,
			"from", from.String(),
			"to", to.String())
	}
	return &Breaker[*Completion]{cb: gobreaker.NewCircuitBreaker[*Completion](settings)}
}

// NewModelCircuitBreaker guards model lookups, which only feed /health, so
// it trips late: 80% of at least five calls.
func NewModelCircuitBreaker(operationType string, cfg *config.OperationAIConfig) *Breaker[*ModelInfo] {
	settings, ok := breakerSettings("AI-Model-"+operationType, cfg)
	if !ok {
		return nil
	}
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.Requests >= 5 && failureRatio(counts) >= 0.8
	}
	return &Breaker[*ModelInfo]{cb: gobreaker.NewCircuitBreaker[*ModelInfo](settings)}
}

func breakerSettings(name string, cfg *config.OperationAIConfig) (gobreaker.Settings, bool) {
	if cfg == nil || !cfg.CircuitBreaker.Enabled {
		return gobreaker.Settings{}, false
	}
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    cfg.CircuitBreaker.Interval,
		Timeout:     cfg.CircuitBreaker.Timeout,
	}, true
}

func failureRatio(counts gobreaker.Counts) float64 {
	if counts.Requests == 0 {
		return 0
	}
	return float64(counts.TotalFailures) / float64(counts.Requests)
}

// Execute runs fn through the breaker. An open breaker returns
// gobreaker.ErrOpenState without calling fn.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// IsHealthy reports whether the breaker is closed. Disabled counts as healthy.
func (b *Breaker[T]) IsHealthy() bool {
	return b == nil || b.cb.State() == gobreaker.StateClosed
}

// GetStats describes the breaker for diagnostics.
func (b *Breaker[T]) GetStats() map[string]any {
	if b == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled": true,
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
	}
}

// isBreakerRejection reports whether err came from an open or saturated breaker.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
