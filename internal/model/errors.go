package model

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers connection failures and unexpected HTTP statuses.
	ErrTransport = errors.New("transport error")

	// ErrServerTimeout means the analysis server gave up on the video.
	ErrServerTimeout = errors.New("analysis server timed out")

	// ErrInvalidPayload is the parent of every payload rejection.
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrMalformedPayload = fmt.Errorf("malformed payload: %w", ErrInvalidPayload)
	ErrNoComments       = fmt.Errorf("no comments: %w", ErrInvalidPayload)

	ErrNotAVideoPage = errors.New("not a video page")
	ErrPollExhausted = errors.New("poll attempts exhausted")
)

// StatusError is returned when the analysis server answers with a non-2xx
// status that is not a timeout.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("analysis server returned status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// IsStatusError reports whether err carries an HTTP status from the server.
func IsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Kind codes reported to callers that cannot inspect Go errors.
const (
	KindTransport     = "transport_error"
	KindServerTimeout = "server_timeout"
	KindMalformed     = "malformed_payload"
	KindNoComments    = "no_comments"
	KindNotAVideoPage = "not_a_video_page"
	KindPollExhausted = "poll_exhausted"
	KindInternal      = "internal_error"
)

// Kind classifies err into one of the Kind codes. It returns "" for nil.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoComments):
		return KindNoComments
	case errors.Is(err, ErrInvalidPayload):
		return KindMalformed
	case errors.Is(err, ErrServerTimeout):
		return KindServerTimeout
	case errors.Is(err, ErrNotAVideoPage):
		return KindNotAVideoPage
	case errors.Is(err, ErrPollExhausted):
		return KindPollExhausted
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindInternal
	}
}
