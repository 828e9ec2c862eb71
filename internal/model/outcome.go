package model

import (
	"fmt"
	"regexp"
)

// Status is the state of one fetch or poll.
type Status int

const (
	StatusPending Status = iota
	StatusFailed
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	case StatusReady:
		return "ready"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is exactly one of Pending, Failed(Err) or Ready(Payload).
type Outcome struct {
	Status  Status
	Payload *Payload
	Err     error
}

func Pending() Outcome { return Outcome{Status: StatusPending} }

func Failed(err error) Outcome { return Outcome{Status: StatusFailed, Err: err} }

func Ready(p *Payload) Outcome { return Outcome{Status: StatusReady, Payload: p} }

// Terminal reports whether polling should stop on this outcome.
func (o Outcome) Terminal() bool { return o.Status != StatusPending }

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateVideoID checks that id is a plausible YouTube video identifier.
func ValidateVideoID(id string) error {
	if !videoIDPattern.MatchString(id) {
		return fmt.Errorf("%w: invalid video id %q", ErrNotAVideoPage, id)
	}
	return nil
}
