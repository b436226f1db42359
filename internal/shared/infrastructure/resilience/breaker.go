package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerState is the externally visible state of a circuit breaker.
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half_open"
)

// halfOpenTrials is both the number of calls admitted while half-open and
// the number of consecutive successes needed to close again.
const halfOpenTrials = 2

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trips the breaker.
	FailureThreshold uint32
	// ResetTimeout is how long the breaker stays open before admitting trial calls.
	ResetTimeout time.Duration
}

// DefaultBreakerConfig returns the breaker settings used for weather providers.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     60 * time.Second,
	}
}

// StateListener is notified on every state transition.
type StateListener func(name string, from, to BreakerState)

// CircuitBreaker guards calls to one upstream dependency.
type CircuitBreaker struct {
	name    string
	breaker *gobreaker.CircuitBreaker[any]
}

// NewCircuitBreaker creates a breaker. Transitions are logged, and reported
// to listener when one is given.
func NewCircuitBreaker(name string, cfg BreakerConfig, logger *slog.Logger, listener StateListener) *CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpenTrials,
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", fromGobreaker(from),
				"to", fromGobreaker(to),
			)
			if listener != nil {
				listener(name, fromGobreaker(from), fromGobreaker(to))
			}
		},
	}

	return &CircuitBreaker{
		name:    name,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns the current state.
func (cb *CircuitBreaker) State() BreakerState {
	return fromGobreaker(cb.breaker.State())
}

// Execute runs fn unless the breaker is open. Rejected calls return an
// error wrapping ErrCircuitOpen and never invoke fn.
func (cb *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	result, err := cb.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &openError{name: cb.name, cause: err}
	}
	return result, err
}

// ExecuteBreaker is a typed wrapper around CircuitBreaker.Execute.
func ExecuteBreaker[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	result, err := cb.Execute(func() (any, error) {
		return fn()
	})
	v, _ := result.(T)
	return v, err
}

type openError struct {
	name  string
	cause error
}

func (e *openError) Error() string {
	return e.name + ": " + ErrCircuitOpen.Error() + " (" + e.cause.Error() + ")"
}

func (e *openError) Is(target error) bool {
	return target == ErrCircuitOpen
}

func (e *openError) Unwrap() error {
	return e.cause
}

// StateValue maps a state to the gauge value exported for it.
func StateValue(s BreakerState) float64 {
	switch s {
	case StateOpen:
		return 2
	case StateHalfOpen:
		return 1
	default:
		return 0
	}
}

func fromGobreaker(s gobreaker.State) BreakerState {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
