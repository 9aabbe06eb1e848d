package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrDecode          = errors.New("event decode failed")
	ErrMissingIdentity = errors.New("event identity missing")

	// ErrOutcomeWithoutSuccess marks stored data carrying a destination or
	// changes on an event that did not succeed.
	ErrOutcomeWithoutSuccess = errors.New("outcome recorded without success")
)

// envelope is the serialized form: {"data": {...}, "error": {...}}.
type envelope struct {
	Data  wireData `json:"data"`
	Error *Failure `json:"error,omitempty"`
}

// wireData uses pointers where absence must be told apart from a zero value,
// so that partial records written by older producers can be defaulted.
type wireData struct {
	ID            *string                    `json:"id,omitempty"`
	TransactionID *string                    `json:"transaction_id,omitempty"`
	Transition    string                     `json:"transition"`
	Args          []json.RawMessage          `json:"args"`
	Status        *Status                    `json:"status,omitempty"`
	AttemptsCount *int                       `json:"attempts_count,omitempty"`
	CreatedAt     *time.Time                 `json:"created_at,omitempty"`
	UpdatedAt     *time.Time                 `json:"updated_at,omitempty"`
	Cache         map[string]json.RawMessage `json:"cache"`
	Destination   json.RawMessage            `json:"destination,omitempty"`
	Changes       json.RawMessage            `json:"changes,omitempty"`
}

// defaults holds the values applied to fields a stored record leaves out.
type defaults struct {
	Status        Status
	AttemptsCount int
	CreatedAt     time.Time
	Cache         map[string]json.RawMessage
}

func newDefaults() defaults {
	return defaults{
		Status:        StatusNew,
		AttemptsCount: 1,
		CreatedAt:     now(),
		Cache:         map[string]json.RawMessage{},
	}
}

// Dump serializes e into its self-describing JSON form.
func Dump(e *Event) ([]byte, error) {
	if e == nil {
		return nil, errors.New("dump nil event")
	}

	id, txID := e.id, e.transactionID
	status, attempts, created := e.status, e.attemptsCount, e.createdAt
	data := wireData{
		ID:            &id,
		TransactionID: &txID,
		Transition:    e.transition,
		Args:          e.args,
		Status:        &status,
		AttemptsCount: &attempts,
		CreatedAt:     &created,
		Cache:         e.cache,
		Destination:   e.destination,
		Changes:       e.changes,
	}
	if data.Args == nil {
		data.Args = []json.RawMessage{}
	}
	if data.Cache == nil {
		data.Cache = map[string]json.RawMessage{}
	}
	if !e.updatedAt.IsZero() {
		updated := e.updatedAt
		data.UpdatedAt = &updated
	}

	return json.Marshal(envelope{Data: data, Error: e.failure})
}

// Dump serializes the event. See Dump.
func (e *Event) Dump() ([]byte, error) {
	return Dump(e)
}

// Load reconstructs an event from its serialized form. Empty input and a
// JSON null yield (nil, nil): no event was stored.
func Load(raw []byte) (*Event, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return fromWire(env, newDefaults())
}

func fromWire(env envelope, def defaults) (*Event, error) {
	d := env.Data
	if d.ID == nil || *d.ID == "" {
		return nil, fmt.Errorf("%w: %w: id", ErrDecode, ErrMissingIdentity)
	}
	if d.TransactionID == nil || *d.TransactionID == "" {
		return nil, fmt.Errorf("%w: %w: transaction_id", ErrDecode, ErrMissingIdentity)
	}

	e := &Event{
		id:            *d.ID,
		transactionID: *d.TransactionID,
		transition:    d.Transition,
		args:          d.Args,
		status:        def.Status,
		attemptsCount: def.AttemptsCount,
		createdAt:     def.CreatedAt,
		cache:         def.Cache,
		destination:   d.Destination,
		changes:       d.Changes,
		failure:       env.Error,
	}

	if d.Status != nil {
		if !d.Status.Valid() {
			return nil, fmt.Errorf("%w: %w: %q", ErrDecode, ErrUnknownStatus, string(*d.Status))
		}
		e.status = *d.Status
	}
	if e.status != StatusSuccess {
		if present(d.Destination) || present(d.Changes) {
			return nil, fmt.Errorf("%w: %w: destination and changes require status %q", ErrDecode, ErrOutcomeWithoutSuccess, StatusSuccess)
		}
		e.destination, e.changes = nil, nil
	}
	if d.AttemptsCount != nil {
		if *d.AttemptsCount < 1 {
			return nil, fmt.Errorf("%w: attempts_count %d is below 1", ErrDecode, *d.AttemptsCount)
		}
		e.attemptsCount = *d.AttemptsCount
	}
	if d.CreatedAt != nil {
		e.createdAt = d.CreatedAt.UTC()
	}
	if d.UpdatedAt != nil {
		e.updatedAt = d.UpdatedAt.UTC()
	}
	if d.Cache != nil {
		e.cache = d.Cache
	}
	if e.args == nil {
		e.args = []json.RawMessage{}
	}

	return e, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
