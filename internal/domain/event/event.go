package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrMissingTransactionID = errors.New("transaction id is required")
	ErrEncode               = errors.New("event payload is not encodable")
)

// IDGenerator issues globally unique event identifiers.
type IDGenerator interface {
	NewID() string
}

// Event records one attempt, possibly retried, to run a named transition
// inside a transaction. Identity fields never change after construction;
// every other field moves only through the mutators below.
//
// Event performs no locking. Callers that share an Event between goroutines
// must serialize access themselves.
type Event struct {
	id            string
	transactionID string
	transition    string
	args          []json.RawMessage
	status        Status
	attemptsCount int
	createdAt     time.Time
	updatedAt     time.Time
	cache         map[string]json.RawMessage
	destination   json.RawMessage
	changes       json.RawMessage
	failure       *Failure
}

// Create builds a new event in the new state for the given transition attempt.
func Create(ids IDGenerator, transactionID, transition string, args ...any) (*Event, error) {
	if transactionID == "" {
		return nil, ErrMissingTransactionID
	}

	encoded := make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		raw, err := encode(arg)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		encoded = append(encoded, raw)
	}

	return &Event{
		id:            ids.NewID(),
		transactionID: transactionID,
		transition:    transition,
		args:          encoded,
		status:        StatusNew,
		attemptsCount: 1,
		createdAt:     now(),
		cache:         map[string]json.RawMessage{},
	}, nil
}

func (e *Event) ID() string            { return e.id }
func (e *Event) TransactionID() string { return e.transactionID }
func (e *Event) Transition() string    { return e.transition }
func (e *Event) Status() Status        { return e.status }
func (e *Event) AttemptsCount() int    { return e.attemptsCount }
func (e *Event) CreatedAt() time.Time  { return e.createdAt }

// UpdatedAt is zero until the first mutation after construction.
func (e *Event) UpdatedAt() time.Time { return e.updatedAt }

// Args returns a copy of the encoded transition arguments.
func (e *Event) Args() []json.RawMessage {
	out := make([]json.RawMessage, len(e.args))
	for i, a := range e.args {
		out[i] = clone(a)
	}
	return out
}

// Arg decodes the i-th argument into v.
func (e *Event) Arg(i int, v any) error {
	if i < 0 || i >= len(e.args) {
		return fmt.Errorf("arg %d out of range (%d args)", i, len(e.args))
	}
	return json.Unmarshal(e.args[i], v)
}

// Destination is nil unless the event completed.
func (e *Event) Destination() json.RawMessage { return clone(e.destination) }

// Changes is nil unless the event completed.
func (e *Event) Changes() json.RawMessage { return clone(e.changes) }

func (e *Event) DecodeDestination(v any) error {
	if e.destination == nil {
		return fmt.Errorf("event %s has no destination", e.id)
	}
	return json.Unmarshal(e.destination, v)
}

func (e *Event) DecodeChanges(v any) error {
	if e.changes == nil {
		return fmt.Errorf("event %s has no changes", e.id)
	}
	return json.Unmarshal(e.changes, v)
}

// Failure returns the most recently linked failure, or nil.
func (e *Event) Failure() *Failure {
	if e.failure == nil {
		return nil
	}
	f := *e.failure
	return &f
}

// CacheGet decodes the cached value stored under key into v.
func (e *Event) CacheGet(key string, v any) (bool, error) {
	raw, ok := e.cache[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// CacheSet stores v under key. The cache survives retries and reloads.
func (e *Event) CacheSet(key string, v any) error {
	raw, err := encode(v)
	if err != nil {
		return fmt.Errorf("cache %q: %w", key, err)
	}
	e.cache[key] = raw
	return nil
}

// CacheKeys returns the cache keys in sorted order.
func (e *Event) CacheKeys() []string {
	keys := make([]string, 0, len(e.cache))
	for k := range e.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *Event) IsNew() bool     { return e.status == StatusNew }
func (e *Event) IsStarted() bool { return e.status == StatusStarted }
func (e *Event) IsFailed() bool  { return e.status == StatusFailed }
func (e *Event) IsRetry() bool   { return e.status == StatusRetry }
func (e *Event) IsSuccess() bool { return e.status == StatusSuccess }

// Start transitions the event to started.
func (e *Event) Start() {
	e.setStatus(StatusStarted)
	e.updatedAt = now()
}

// AttemptRetry counts another attempt. Status is left as is; the caller
// follows up with Start.
func (e *Event) AttemptRetry() {
	e.attemptsCount++
	e.updatedAt = now()
}

// LinkFailure records f as the event's error and transitions to failed.
// A previous failure is replaced.
func (e *Event) LinkFailure(f Failure) {
	ts := now()
	f.CreatedAt = ts
	e.failure = &f
	e.setStatus(StatusFailed)
	e.updatedAt = ts
}

// LinkError describes err and links it as the event's failure.
func (e *Event) LinkError(err error) {
	e.LinkFailure(Describe(err))
}

// Complete records the outcome of a successful transition. Nothing is
// changed when either payload cannot be encoded.
func (e *Event) Complete(changes, destination any) error {
	rawChanges, err := encode(changes)
	if err != nil {
		return fmt.Errorf("changes: %w", err)
	}
	rawDestination, err := encode(destination)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	e.setStatus(StatusSuccess)
	e.changes = rawChanges
	e.destination = rawDestination
	e.failure = nil
	e.updatedAt = now()
	return nil
}

// setStatus keeps destination and changes present only on success.
func (e *Event) setStatus(s Status) {
	e.status = s
	if s != StatusSuccess {
		e.destination = nil
		e.changes = nil
	}
}

func encode(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return raw, nil
}

func clone(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

var now = func() time.Time {
	return time.Now().UTC()
}
