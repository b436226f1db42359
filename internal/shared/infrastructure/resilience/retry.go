package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxRetries is the number of re-invocations after the first call.
	MaxRetries int
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps every computed delay.
	MaxDelay time.Duration
	// BackoffFactor multiplies the delay on each attempt.
	BackoffFactor float64
	// Retryable decides whether an error is transient. Defaults to IsRetryable.
	Retryable func(error) bool
	// OnRetry, when set, is called before each wait.
	OnRetry func(err error, delay time.Duration)
}

// DefaultRetryConfig returns the retry settings used for weather providers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		Retryable:     IsRetryable,
	}
}

// Delay returns min(InitialDelay × BackoffFactor^attempt, MaxDelay), where
// attempt 0 is the wait before the first retry.
func Delay(cfg RetryConfig, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	factor := cfg.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	d := float64(cfg.InitialDelay) * math.Pow(factor, float64(attempt))
	if cfg.MaxDelay > 0 && d > float64(cfg.MaxDelay) {
		return cfg.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// exponentialBackOff adapts Delay to backoff.BackOff. With jitter, each
// delay is drawn uniformly from [50%, 100%] of the computed value.
type exponentialBackOff struct {
	cfg     RetryConfig
	jitter  bool
	attempt int
	rand    func() float64
}

func (b *exponentialBackOff) NextBackOff() time.Duration {
	d := Delay(b.cfg, b.attempt)
	b.attempt++
	if b.jitter {
		d = time.Duration(float64(d) * (0.5 + 0.5*b.rand()))
	}
	return d
}

func (b *exponentialBackOff) Reset() {
	b.attempt = 0
}

// RetryWithBackoff calls fn until it succeeds, fails with a non-retryable
// error, or has been called 1+MaxRetries times.
func RetryWithBackoff[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	return retry(ctx, cfg, &exponentialBackOff{cfg: cfg}, fn)
}

// RetryWithJitter behaves like RetryWithBackoff with randomized delays so
// that concurrent callers do not retry in lockstep.
func RetryWithJitter[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	return retry(ctx, cfg, &exponentialBackOff{cfg: cfg, jitter: true, rand: rand.Float64}, fn)
}

func retry[T any](ctx context.Context, cfg RetryConfig, b backoff.BackOff, fn func(ctx context.Context) (T, error)) (T, error) {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	op := func() (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		result, err := fn(ctx)
		if err != nil && !retryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(maxRetries + 1)),
		backoff.WithMaxElapsedTime(0),
	}
	if cfg.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(cfg.OnRetry))
	}
	result, err := backoff.Retry(ctx, op, opts...)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return result, err
}
