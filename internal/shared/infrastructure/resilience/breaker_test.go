package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func failing() (any, error) { return nil, errUpstream }
func succeeding() (any, error) { return "ok", nil }

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("primary", BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute}, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(failing)
		assert.ErrorIs(t, err, errUpstream)
		assert.Equal(t, StateClosed, cb.State())
	}

	_, err := cb.Execute(failing)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_OpenRejectsWithoutCalling(t *testing.T) {
	cb := NewCircuitBreaker("primary", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute}, nil, nil)
	_, _ = cb.Execute(failing)
	require.Equal(t, StateOpen, cb.State())

	called := false
	_, err := cb.Execute(func() (any, error) {
		called = true
		return nil, nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("primary", BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute}, nil, nil)

	_, _ = cb.Execute(failing)
	_, _ = cb.Execute(succeeding)
	_, _ = cb.Execute(failing)

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenNeedsTwoSuccesses(t *testing.T) {
	cb := NewCircuitBreaker("secondary", BreakerConfig{FailureThreshold: 1, ResetTimeout: 20 * time.Millisecond}, nil, nil)
	_, _ = cb.Execute(failing)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	_, err := cb.Execute(succeeding)
	require.NoError(t, err)
	assert.Equal(t, StateHalfOpen, cb.State())

	_, err = cb.Execute(succeeding)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("secondary", BreakerConfig{FailureThreshold: 1, ResetTimeout: 20 * time.Millisecond}, nil, nil)
	_, _ = cb.Execute(failing)
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	_, err := cb.Execute(failing)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_ListenerReceivesTransitions(t *testing.T) {
	var mu sync.Mutex
	var transitions []BreakerState
	listener := func(name string, from, to BreakerState) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "primary", name)
		transitions = append(transitions, to)
	}

	cb := NewCircuitBreaker("primary", BreakerConfig{FailureThreshold: 1, ResetTimeout: 20 * time.Millisecond}, nil, listener)
	_, _ = cb.Execute(failing)
	time.Sleep(40 * time.Millisecond)
	_, _ = cb.Execute(succeeding)
	_, _ = cb.Execute(succeeding)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []BreakerState{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestExecuteBreaker_Typed(t *testing.T) {
	cb := NewCircuitBreaker("typed", DefaultBreakerConfig(), nil, nil)

	v, err := ExecuteBreaker(cb, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	p, err := ExecuteBreaker(cb, func() (*int, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = ExecuteBreaker(cb, func() (int, error) { return 0, errUpstream })
	assert.ErrorIs(t, err, errUpstream)
}

func TestStateValue(t *testing.T) {
	assert.Equal(t, 0.0, StateValue(StateClosed))
	assert.Equal(t, 1.0, StateValue(StateHalfOpen))
	assert.Equal(t, 2.0, StateValue(StateOpen))
}
