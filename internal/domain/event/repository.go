package event

import "context"

// Repository defines the interface for persisting transition events.
type Repository interface {
	// Save persists an event (create or update), keyed by its ID.
	Save(ctx context.Context, e *Event) error

	// FindByID retrieves an event. It returns nil, nil when none is stored.
	FindByID(ctx context.Context, id string) (*Event, error)

	// ListByTransaction retrieves all events of a transaction, oldest first.
	ListByTransaction(ctx context.Context, transactionID string) ([]*Event, error)

	// ListByStatus retrieves events matching any of the provided statuses, oldest first.
	ListByStatus(ctx context.Context, statuses []Status, limit int) ([]*Event, error)

	// ListRunnable retrieves new events and failed events that have fewer
	// than maxAttempts attempts, oldest first. Events whose transition is in
	// skip are left out.
	ListRunnable(ctx context.Context, maxAttempts, limit int, skip []string) ([]*Event, error)
}

// Runnable reports whether e is eligible for another attempt under maxAttempts.
func Runnable(e *Event, maxAttempts int) bool {
	switch e.status {
	case StatusNew:
		return true
	case StatusFailed:
		return e.attemptsCount < maxAttempts
	default:
		return false
	}
}
