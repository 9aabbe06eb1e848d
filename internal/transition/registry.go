// Package transition maps transition names to the application code that
// performs them.
package transition

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/railzwaylabs/sagalog/internal/domain/event"
)

var (
	ErrDuplicate   = errors.New("transition already registered")
	ErrInvalidName = errors.New("transition name is required")
	ErrNilHandler  = errors.New("transition handler is nil")
)

// Result is what a successful transition reports back for the event.
type Result struct {
	Changes     any
	Destination any
}

// Handler performs a transition. It may read the event's args and use its
// cache, but must not change its status; the pipeline records the outcome.
type Handler func(ctx context.Context, e *event.Event) (Result, error)

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(name string, h Handler) error {
	if name == "" {
		return ErrInvalidName
	}
	if h == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.handlers[name] = h
	return nil
}

// MustRegister is Register for wiring code; it panics on error.
func (r *Registry) MustRegister(name string, h Handler) {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered transition names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
