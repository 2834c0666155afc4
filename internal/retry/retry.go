// Package retry runs remote calls again on transient failures with jittered
// exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"syscall"
	"time"
)

// Predicate reports whether an error is worth another attempt.
type Predicate func(error) bool

// Policy bounds the attempts of one call.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// OnRetry, when set, is called before each wait with the attempt that
	// just failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy is used for Hetzner API calls.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  5 * time.Second,
	}
}

// Value calls fn until it succeeds, returns an error rejected by
// shouldRetry, or runs out of attempts. A nil shouldRetry means
// IsTransient. The last error is returned as is.
func Value[T any](ctx context.Context, p Policy, shouldRetry Predicate, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= p.Attempts || !shouldRetry(err) {
			return zero, err
		}

		delay := p.delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		if !wait(ctx, delay) {
			return zero, ctx.Err()
		}
	}
}

// Do is Value for calls without a result.
func Do(ctx context.Context, p Policy, shouldRetry Predicate, fn func(context.Context) error) error {
	_, err := Value(ctx, p, shouldRetry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Any returns a predicate matching errors accepted by any of preds.
func Any(preds ...Predicate) Predicate {
	return func(err error) bool {
		for _, p := range preds {
			if p != nil && p(err) {
				return true
			}
		}
		return false
	}
}

// IsTransient reports whether err looks like a passing network failure:
// a deadline or network timeout, or a refused or reset connection.
// Cancellation is never transient.
func IsTransient(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// delay returns a random wait in [0, min(BaseDelay*2^(attempt-1), MaxDelay)].
func (p Policy) delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	ceiling := p.BaseDelay << (attempt - 1)
	if ceiling <= 0 || (p.MaxDelay > 0 && ceiling > p.MaxDelay) {
		ceiling = p.MaxDelay
	}
	if ceiling <= 0 {
		return 0
	}
	return rand.N(ceiling + 1)
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
