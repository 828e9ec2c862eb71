// Package relay is the background side of the page ↔ worker message channel.
// It tracks the page the user is on, polls the analysis server for it, keeps
// the last result cached, and answers getCommentData requests.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/raysh454/commentlens/internal/cache"
	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/metrics"
	"github.com/raysh454/commentlens/internal/model"
	"github.com/raysh454/commentlens/internal/poller"
	"github.com/raysh454/commentlens/internal/utils"
	"golang.org/x/sync/singleflight"
)

// MethodGetCommentData is the only method the relay understands.
const MethodGetCommentData = "getCommentData"

// ErrUnknownMethod is returned for any other method.
var ErrUnknownMethod = errors.New("relay: unknown method")

// Message is a request from a UI surface.
type Message struct {
	ID      string  `json:"id,omitempty"`
	Method  string  `json:"method"`
	VideoID *string `json:"video_id,omitempty"`
}

// Reply answers a Message. Data is the analysis document or JSON null.
type Reply struct {
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

var null = json.RawMessage("null")

// Scheduler is the part of *poller.Scheduler the relay uses.
type Scheduler interface {
	Schedule(ctx context.Context, videoID string, onSettled func(model.Outcome)) *poller.Cycle
	Poll(ctx context.Context, videoID string) model.Outcome
	Stop()
}

type Relay struct {
	scheduler Scheduler
	cache     cache.Cache
	logger    logging.Logger
	metrics   *metrics.Metrics
	group     singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc

	// mu orders navigation against cache writes from settling cycles.
	mu      sync.Mutex
	current string
}

func New(s Scheduler, c cache.Cache, logger logging.Logger, m *metrics.Metrics) *Relay {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Relay{
		scheduler: s,
		cache:     c,
		logger:    logger.With(logging.Field{Key: "component", Value: "relay"}),
		metrics:   m,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Navigate records that the page moved to rawURL. Leaving for a different
// video or a non-video page invalidates the cache and stops the running
// poll; a video page starts a new background poll whose result is cached.
func (r *Relay) Navigate(ctx context.Context, rawURL string) (string, error) {
	videoID, err := utils.ExtractVideoID(rawURL)

	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.current
	if err != nil {
		r.current = ""
		r.scheduler.Stop()
		r.invalidate(ctx, previous)
		return "", err
	}

	r.current = videoID
	if previous != videoID {
		r.invalidate(ctx, previous)
	}
	r.scheduler.Schedule(r.ctx, videoID, func(o model.Outcome) { r.settled(videoID, o) })

	r.logger.Info("navigated",
		logging.Field{Key: "video_id", Value: videoID},
		logging.Field{Key: "previous", Value: previous})
	return videoID, nil
}

func (r *Relay) invalidate(ctx context.Context, previous string) {
	if err := r.cache.Invalidate(ctx); err != nil {
		r.logger.Warn("failed to invalidate cache",
			logging.Field{Key: "previous", Value: previous},
			logging.Field{Key: "error", Value: err.Error()})
	}
}

func (r *Relay) settled(videoID string, o model.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != videoID {
		r.logger.Debug("dropping result for a page no longer shown", logging.Field{Key: "video_id", Value: videoID})
		return
	}
	if o.Status != model.StatusReady {
		r.logger.Warn("background poll failed",
			logging.Field{Key: "video_id", Value: videoID},
			logging.Field{Key: "kind", Value: model.Kind(o.Err)})
		return
	}
	if err := r.cache.Set(r.ctx, videoID, o.Payload); err != nil {
		r.logger.Warn("failed to cache analysis",
			logging.Field{Key: "video_id", Value: videoID},
			logging.Field{Key: "error", Value: err.Error()})
	}
}

// Current returns the video the page is on, or "".
func (r *Relay) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Handle answers one message. Without a video id it returns the cached
// analysis for the current page; with one it fetches that video, sharing
// the poll with any concurrent request for the same id.
func (r *Relay) Handle(ctx context.Context, msg Message) Reply {
	reply := Reply{ID: msg.ID, Data: null}
	if msg.Method != MethodGetCommentData {
		reply.Error = fmt.Sprintf("%s: %q", ErrUnknownMethod, msg.Method)
		return reply
	}

	if msg.VideoID == nil {
		data, err := r.cached(ctx)
		if err != nil {
			reply.Error = model.KindInternal
			r.logger.Warn("cache lookup failed", logging.Field{Key: "error", Value: err.Error()})
			return reply
		}
		if data == nil {
			r.metrics.ObserveRelay("none")
			return reply
		}
		r.metrics.ObserveRelay("cache")
		reply.Data = data
		return reply
	}

	o := r.Fetch(ctx, *msg.VideoID)
	r.metrics.ObserveRelay("fetch")
	if o.Status != model.StatusReady {
		reply.Error = model.Kind(o.Err)
		return reply
	}
	data, err := o.Payload.MarshalJSON()
	if err != nil {
		reply.Error = model.KindInternal
		return reply
	}
	reply.Data = data
	return reply
}

func (r *Relay) cached(ctx context.Context) (json.RawMessage, error) {
	current := r.Current()
	if current == "" {
		return nil, nil
	}
	entry, err := r.cache.Get(ctx)
	if err != nil || entry == nil || entry.VideoID != current {
		return nil, err
	}
	return entry.Payload.MarshalJSON()
}

// Fetch polls videoID to a terminal outcome. Concurrent calls for the same
// id share one poll. A cancelled ctx abandons the wait, not the poll.
func (r *Relay) Fetch(ctx context.Context, videoID string) model.Outcome {
	if err := model.ValidateVideoID(videoID); err != nil {
		return model.Failed(err)
	}
	ch := r.group.DoChan(videoID, func() (any, error) {
		return r.scheduler.Poll(r.ctx, videoID), nil
	})
	select {
	case res := <-ch:
		return res.Val.(model.Outcome)
	case <-ctx.Done():
		return model.Failed(fmt.Errorf("fetch %s: %w", videoID, ctx.Err()))
	}
}

// Close stops background work.
func (r *Relay) Close() error {
	r.scheduler.Stop()
	r.cancel()
	return nil
}
