// Package retry runs a condition at a fixed interval until it reports done,
// fails, or the policy runs out of attempts or time.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is returned by Until when the policy allows no more attempts.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Policy is a fixed-interval schedule with an attempt cap, an elapsed-time
// cap, or both. Zero caps are ignored, but at least one must be set.
type Policy struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
	MaxElapsed  time.Duration `yaml:"max_elapsed"`
}

func (p Policy) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("retry: interval must be positive, got %s", p.Interval)
	}
	if p.MaxAttempts < 0 || p.MaxElapsed < 0 {
		return fmt.Errorf("retry: caps must not be negative")
	}
	if p.MaxAttempts == 0 && p.MaxElapsed == 0 {
		return fmt.Errorf("retry: policy needs max_attempts or max_elapsed")
	}
	return nil
}

// NewBackOff returns a constant backoff honouring both caps.
func (p Policy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.Interval
	eb.MaxInterval = p.Interval
	eb.Multiplier = 1
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = p.MaxElapsed
	eb.Reset()

	var b backoff.BackOff = eb
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return b
}

// Condition is evaluated once per attempt. A non-nil error stops the loop.
type Condition func(ctx context.Context) (done bool, err error)

// Notify is called before each wait with the attempt that just failed.
type Notify func(attempt int, wait time.Duration)

// Until evaluates cond immediately and then once per interval. It returns the
// number of attempts made and nil, the condition's error, ctx.Err(), or
// ErrExhausted.
func Until(ctx context.Context, p Policy, cond Condition, notify Notify) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	b := p.NewBackOff()

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return attempt, err
		}
		attempt++
		done, err := cond(ctx)
		if err != nil {
			return attempt, err
		}
		if done {
			return attempt, nil
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return attempt, ErrExhausted
		}
		if notify != nil {
			notify(attempt, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
}
