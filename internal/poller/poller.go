// Package poller drives the pending → ready cycle for one video at a time.
//
// A Scheduler owns at most one active Cycle. Starting a cycle for a new video
// supersedes the previous one: its context is cancelled and, should it still
// reach a terminal outcome, that outcome is discarded instead of delivered.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/metrics"
	"github.com/raysh454/commentlens/internal/model"
	"github.com/raysh454/commentlens/internal/retry"
)

// Fetcher performs a single, non-retrying analysis request.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) model.Outcome
}

// DefaultPolicy polls once a second for up to two minutes.
func DefaultPolicy() retry.Policy {
	return retry.Policy{Interval: time.Second, MaxAttempts: 120, MaxElapsed: 2 * time.Minute}
}

// Cycle is one poll loop for one video.
type Cycle struct {
	ID         string
	VideoID    string
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// Done is closed once the cycle has finished, delivered or not.
func (c *Cycle) Done() <-chan struct{} { return c.done }

type Scheduler struct {
	fetcher Fetcher
	policy  retry.Policy
	logger  logging.Logger
	metrics *metrics.Metrics

	mu         sync.Mutex
	generation uint64
	active     *Cycle
}

func NewScheduler(fetcher Fetcher, policy retry.Policy, logger logging.Logger, m *metrics.Metrics) (*Scheduler, error) {
	if fetcher == nil {
		return nil, errors.New("poller: nil fetcher")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("poller: %w", err)
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Scheduler{
		fetcher: fetcher,
		policy:  policy,
		logger:  logger.With(logging.Field{Key: "component", Value: "poller"}),
		metrics: m,
	}, nil
}

// Schedule starts a cycle for videoID and returns immediately. onSettled is
// called exactly once with the first terminal outcome, unless the cycle is
// superseded or stopped first, in which case it is never called.
func (s *Scheduler) Schedule(ctx context.Context, videoID string, onSettled func(model.Outcome)) *Cycle {
	cctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.active != nil {
		s.active.cancel()
	}
	s.generation++
	c := &Cycle{
		ID:         uuid.New().String(),
		VideoID:    videoID,
		generation: s.generation,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.active = c
	s.mu.Unlock()

	s.logger.Debug("poll cycle started",
		logging.Field{Key: "cycle_id", Value: c.ID},
		logging.Field{Key: "video_id", Value: videoID},
		logging.Field{Key: "generation", Value: c.generation})

	go func() {
		defer close(c.done)
		defer cancel()

		outcome := s.run(cctx, videoID)
		if !s.settle(cctx, c) {
			s.metrics.ObserveDiscarded()
			s.logger.Debug("discarding stale poll result",
				logging.Field{Key: "cycle_id", Value: c.ID},
				logging.Field{Key: "video_id", Value: videoID},
				logging.Field{Key: "status", Value: outcome.Status.String()})
			return
		}
		s.metrics.ObserveCycle(outcome)
		if onSettled != nil {
			onSettled(outcome)
		}
	}()
	return c
}

// settle claims the right to deliver c's outcome. Only the current
// generation, still uncancelled, may deliver.
func (s *Scheduler) settle(ctx context.Context, c *Cycle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != c || c.generation != s.generation {
		return false
	}
	s.active = nil
	return ctx.Err() == nil
}

// Poll runs a standalone cycle and blocks until it settles. It does not take
// part in supersession.
func (s *Scheduler) Poll(ctx context.Context, videoID string) model.Outcome {
	outcome := s.run(ctx, videoID)
	s.metrics.ObserveCycle(outcome)
	return outcome
}

// Stop cancels the active cycle, if any. Its result will not be delivered.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.cancel()
		s.active = nil
	}
}

// Active returns the video id of the active cycle.
func (s *Scheduler) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return "", false
	}
	return s.active.VideoID, true
}

func (s *Scheduler) run(ctx context.Context, videoID string) model.Outcome {
	last := model.Pending()
	attempts, err := retry.Until(ctx, s.policy,
		func(ctx context.Context) (bool, error) {
			last = s.fetcher.Fetch(ctx, videoID)
			s.metrics.ObserveFetch(last)
			return last.Terminal(), nil
		},
		func(attempt int, wait time.Duration) {
			s.logger.Debug("analysis pending, waiting",
				logging.Field{Key: "video_id", Value: videoID},
				logging.Field{Key: "attempt", Value: attempt},
				logging.Field{Key: "wait", Value: wait.String()})
		},
	)

	switch {
	case errors.Is(err, retry.ErrExhausted):
		s.logger.Warn("gave up waiting for analysis",
			logging.Field{Key: "video_id", Value: videoID},
			logging.Field{Key: "attempts", Value: attempts})
		return model.Failed(fmt.Errorf("%w: %s still pending after %d attempts", model.ErrPollExhausted, videoID, attempts))
	case err != nil:
		return model.Failed(fmt.Errorf("poll %s: %w", videoID, err))
	}
	return last
}
