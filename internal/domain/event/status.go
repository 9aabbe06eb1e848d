package event

import (
	"errors"
	"fmt"
)

// Status represents the lifecycle state of a transition event.
type Status string

const (
	StatusNew     Status = "new"
	StatusStarted Status = "started"
	StatusFailed  Status = "failed"
	StatusRetry   Status = "retry"
	StatusSuccess Status = "success"
)

var ErrUnknownStatus = errors.New("unknown event status")

// Statuses lists every status in declaration order.
func Statuses() []Status {
	return []Status{StatusNew, StatusStarted, StatusFailed, StatusRetry, StatusSuccess}
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusStarted, StatusFailed, StatusRetry, StatusSuccess:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a stored status string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}
