package retry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raysh454/commentlens/internal/retry"
)

func never(context.Context) (bool, error) { return false, nil }

func TestUntil_StopsAtAttemptCap(t *testing.T) {
	t.Parallel()

	var calls, waits int
	attempts, err := retry.Until(context.Background(),
		retry.Policy{Interval: time.Millisecond, MaxAttempts: 4},
		func(context.Context) (bool, error) { calls++; return false, nil },
		func(int, time.Duration) { waits++ },
	)
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
	if attempts != 4 || calls != 4 || waits != 3 {
		t.Errorf("attempts=%d calls=%d waits=%d, want 4/4/3", attempts, calls, waits)
	}
}

func TestUntil_SucceedsAfterWaits(t *testing.T) {
	t.Parallel()

	var calls int
	var waits []time.Duration
	attempts, err := retry.Until(context.Background(),
		retry.Policy{Interval: 2 * time.Millisecond, MaxAttempts: 10},
		func(context.Context) (bool, error) { calls++; return calls == 4, nil },
		func(_ int, d time.Duration) { waits = append(waits, d) },
	)
	if err != nil {
		t.Fatalf("Until: %v", err)
	}
	if attempts != 4 || len(waits) != 3 {
		t.Fatalf("attempts=%d waits=%d, want 4/3", attempts, len(waits))
	}
	for _, w := range waits {
		if w != 2*time.Millisecond {
			t.Errorf("wait = %s, want a constant 2ms", w)
		}
	}
}

func TestUntil_ConditionErrorStops(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	attempts, err := retry.Until(context.Background(),
		retry.Policy{Interval: time.Millisecond, MaxAttempts: 5},
		func(context.Context) (bool, error) { return false, boom },
		nil,
	)
	if !errors.Is(err, boom) || attempts != 1 {
		t.Fatalf("attempts=%d err=%v", attempts, err)
	}
}

func TestUntil_ElapsedCap(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	start := time.Now()
	_, err := retry.Until(context.Background(),
		retry.Policy{Interval: 5 * time.Millisecond, MaxElapsed: 30 * time.Millisecond},
		func(context.Context) (bool, error) { calls.Add(1); return false, nil },
		nil,
	)
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("elapsed cap not honoured: %s", elapsed)
	}
	if calls.Load() < 2 {
		t.Errorf("expected a few attempts, got %d", calls.Load())
	}
}

func TestUntil_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := retry.Until(ctx, retry.Policy{Interval: time.Millisecond, MaxElapsed: time.Minute}, never, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPolicy_Validate(t *testing.T) {
	t.Parallel()

	bad := []retry.Policy{
		{},
		{Interval: time.Second},
		{Interval: -time.Second, MaxAttempts: 1},
		{Interval: time.Second, MaxAttempts: -1},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", p)
		}
		if _, err := retry.Until(context.Background(), p, never, nil); err == nil {
			t.Errorf("Until accepted invalid policy %+v", p)
		}
	}
	if err := (retry.Policy{Interval: time.Second, MaxAttempts: 1}).Validate(); err != nil {
		t.Errorf("valid policy rejected: %v", err)
	}
}
