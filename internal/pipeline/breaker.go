package pipeline

import (
	"errors"
	"sort"
	"sync"

	"github.com/sony/gobreaker"

	"github.com/railzwaylabs/sagalog/internal/config"
)

// CircuitBreaker guards the handler of one transition.
type CircuitBreaker interface {
	Execute(fn func() error) error
	Open() bool
}

// BreakerOpenError is returned when a breaker rejects an attempt.
type BreakerOpenError struct {
	Transition string
}

func (e *BreakerOpenError) Error() string {
	return "circuit open for transition " + e.Transition
}

func (e *BreakerOpenError) Kind() string { return KindCircuitOpen }

/*
|--------------------------------------------------------------------------
| Noop Breaker (disabled)
|--------------------------------------------------------------------------
*/

type noopBreaker struct{}

func (noopBreaker) Execute(fn func() error) error { return fn() }
func (noopBreaker) Open() bool                    { return false }

/*
|--------------------------------------------------------------------------
| Gobreaker implementation
|--------------------------------------------------------------------------
*/

type gobreakerWrapper struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

func (g *gobreakerWrapper) Execute(fn func() error) error {
	_, err := g.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &BreakerOpenError{Transition: g.name}
	}
	return err
}

func (g *gobreakerWrapper) Open() bool {
	return g.cb.State() == gobreaker.StateOpen
}

func newGobreaker(name string, cfg *config.Config) CircuitBreaker {
	settings := gobreaker.Settings{
		Name: "transition:" + name,

		MaxRequests: uint32(cfg.CBHalfOpenMaxSuccess),

		Interval: cfg.CBSamplingDuration,
		Timeout:  cfg.CBRecoveryTime,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.CBMinRequests) {
				return false
			}
			return counts.TotalFailures >= uint32(cfg.CBFailureThreshold)
		},

		IsSuccessful: func(err error) bool {
			return err == nil
		},
	}

	return &gobreakerWrapper{
		name: name,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// breakerSet lazily creates one breaker per transition name.
type breakerSet struct {
	mu       sync.Mutex
	cfg      *config.Config
	breakers map[string]CircuitBreaker
}

func newBreakerSet(cfg *config.Config) *breakerSet {
	return &breakerSet{cfg: cfg, breakers: make(map[string]CircuitBreaker)}
}

// open returns the sorted names of transitions whose breaker is open.
func (s *breakerSet) open() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name, b := range s.breakers {
		if b.Open() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *breakerSet) get(name string) CircuitBreaker {
	if !s.cfg.CircuitBreakerEnabled {
		return noopBreaker{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakers[name]
	if !ok {
		b = newGobreaker(name, s.cfg)
		s.breakers[name] = b
	}
	return b
}
