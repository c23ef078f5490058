// Package circuitbreaker guards the generative backend with a
// consecutive-failure breaker built on sony/gobreaker. While open, calls fail
// immediately with ErrCircuitOpen and never reach the backend.
package circuitbreaker

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/sony/gobreaker"
	"github.com/teilomillet/callbridge/config"
	"github.com/teilomillet/callbridge/server/metrics"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = stderrors.New("circuit breaker is open")

// State is the breaker state; its numeric value is what the state gauge shows.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// CircuitBreaker wraps a gobreaker instance with logging and metrics.
type CircuitBreaker struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a breaker that opens after cfg.FailureThreshold consecutive
// failures and stays open for cfg.Timeout. It returns nil when cfg is disabled;
// a nil *CircuitBreaker runs every call directly.
func New(name string, cfg config.CircuitBreakerConfig, logger *zap.Logger, m *metrics.Metrics) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &CircuitBreaker{
		name:    name,
		logger:  logger,
		metrics: m,
	}
	threshold := cfg.FailureThreshold
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller hanging up says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || stderrors.Is(err, context.Canceled)
		},
		OnStateChange: b.onStateChange,
	})
	return b
}

func (b *CircuitBreaker) onStateChange(name string, from, to gobreaker.State) {
	b.metrics.SetBreakerState(float64(to))
	if to == gobreaker.StateOpen {
		b.metrics.RecordBreakerTrip()
		b.logger.Warn("Circuit breaker tripped",
			zap.String("name", name),
			zap.String("from", from.String()),
		)
		return
	}
	b.logger.Info("Circuit breaker state changed",
		zap.String("name", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

// Execute runs f unless the breaker is open. Rejections wrap ErrCircuitOpen.
func (b *CircuitBreaker) Execute(f func() (string, error)) (string, error) {
	if b == nil {
		return f()
	}

	v, err := b.cb.Execute(func() (interface{}, error) {
		return f()
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %s: %v", ErrCircuitOpen, b.name, err)
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// GetState returns the current state; a nil breaker is always closed.
func (b *CircuitBreaker) GetState() State {
	if b == nil {
		return StateClosed
	}
	return b.cb.State()
}
