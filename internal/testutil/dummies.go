// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/model"
	"github.com/raysh454/commentlens/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnMessages returns a snapshot of recorded warnings.
func (l *DummyLogger) WarnMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Warns...)
}

// DebugMessages returns a snapshot of recorded debug lines.
func (l *DummyLogger) DebugMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Debugs...)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// ScriptedResponse is one canned answer of DummyWebClient.
type ScriptedResponse struct {
	StatusCode int
	Body       string
	Err        error
}

// DummyWebClient implements webclient.WebClient.
// It replays Script in order and repeats the last entry once exhausted.
// With an empty script it answers 200 with an empty body.
type DummyWebClient struct {
	ResponseDelay time.Duration
	Script        []ScriptedResponse

	mu       sync.Mutex
	Requests []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	n := len(d.Requests)
	var next ScriptedResponse
	switch {
	case len(d.Script) == 0:
		next = ScriptedResponse{StatusCode: http.StatusOK}
	case n <= len(d.Script):
		next = d.Script[n-1]
	default:
		next = d.Script[len(d.Script)-1]
	}
	d.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	return &webclient.Response{
		Request:    req,
		Body:       []byte(next.Body),
		Headers:    http.Header{},
		StatusCode: next.StatusCode,
		FetchedAt:  time.Now(),
	}, nil
}

// RequestCount returns how many requests were made.
func (d *DummyWebClient) RequestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

func (d *DummyWebClient) Close() error { return nil }

// ─── Fetcher ───────────────────────────────────────────────────────────

// ScriptedFetcher replays outcomes per video id. Once a script is exhausted
// its last outcome repeats; unknown ids fail.
type ScriptedFetcher struct {
	Scripts map[string][]model.Outcome
	// Delay is applied before every answer and honours ctx.
	Delay time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func (f *ScriptedFetcher) Fetch(ctx context.Context, videoID string) model.Outcome {
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return model.Failed(ctx.Err())
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[videoID]++
	script := f.Scripts[videoID]
	if len(script) == 0 {
		return model.Failed(errors.New("no script for " + videoID))
	}
	i := f.calls[videoID] - 1
	if i >= len(script) {
		i = len(script) - 1
	}
	return script[i]
}

// Calls reports how often videoID was fetched.
func (f *ScriptedFetcher) Calls(videoID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[videoID]
}

// ─── Fixtures ──────────────────────────────────────────────────────────

// SamplePayloadJSON is a well-formed analysis document: 60/20/20 sentiment,
// joy as the strongest emotion and 15% sarcasm.
const SamplePayloadJSON = `{"sentiment_analysis":{"positive":[0.61,60],"neutral":[0.2,20],"negative":[0.19,20]},` +
	`"emotion_analysis":{"neutral":[0.3,30],"joy":[0.4,50],"sadness":[0.3,20]},"sarcasm_analysis":0.15}`

// SamplePayload parses SamplePayloadJSON and panics on failure.
func SamplePayload() *model.Payload {
	p, err := model.ParsePayload([]byte(SamplePayloadJSON))
	if err != nil {
		panic(err)
	}
	return p
}
