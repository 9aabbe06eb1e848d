// Package memory keeps serialized events in process memory. It backs local
// runs (DB_TYPE=memory) and tests; contents are lost on restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/railzwaylabs/sagalog/internal/domain/event"
)

type record struct {
	id            string
	transactionID string
	createdAt     time.Time
	payload       []byte
}

// Repository stores each event as its serialized form, so callers never
// share mutable state with the store.
type Repository struct {
	mu      sync.RWMutex
	records map[string]record
}

func NewRepository() *Repository {
	return &Repository{records: make(map[string]record)}
}

func (r *Repository) Save(ctx context.Context, e *event.Event) error {
	payload, err := e.Dump()
	if err != nil {
		return fmt.Errorf("dump event %s: %w", e.ID(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[e.ID()] = record{
		id:            e.ID(),
		transactionID: e.TransactionID(),
		createdAt:     e.CreatedAt(),
		payload:       payload,
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*event.Event, error) {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return event.Load(rec.payload)
}

func (r *Repository) ListByTransaction(ctx context.Context, transactionID string) ([]*event.Event, error) {
	return r.list(func(rec record, e *event.Event) bool {
		return rec.transactionID == transactionID
	}, 0)
}

func (r *Repository) ListByStatus(ctx context.Context, statuses []event.Status, limit int) ([]*event.Event, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	return r.list(func(_ record, e *event.Event) bool {
		for _, s := range statuses {
			if e.Status() == s {
				return true
			}
		}
		return false
	}, limit)
}

func (r *Repository) ListRunnable(ctx context.Context, maxAttempts, limit int, skip []string) ([]*event.Event, error) {
	return r.list(func(_ record, e *event.Event) bool {
		return event.Runnable(e, maxAttempts) && !slices.Contains(skip, e.Transition())
	}, limit)
}

func (r *Repository) list(match func(record, *event.Event) bool, limit int) ([]*event.Event, error) {
	r.mu.RLock()
	recs := make([]record, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].createdAt.Equal(recs[j].createdAt) {
			return recs[i].createdAt.Before(recs[j].createdAt)
		}
		return recs[i].id < recs[j].id
	})

	items := make([]*event.Event, 0)
	for _, rec := range recs {
		e, err := event.Load(rec.payload)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", rec.id, err)
		}
		if !match(rec, e) {
			continue
		}
		items = append(items, e)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

// Len returns the number of stored events.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
