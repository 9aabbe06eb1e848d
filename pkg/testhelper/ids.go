package testhelper

import (
	"fmt"
	"sync"
)

// SequenceIDs is a deterministic event.IDGenerator for tests.
type SequenceIDs struct {
	mu     sync.Mutex
	Prefix string
	n      int
}

func (s *SequenceIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	prefix := s.Prefix
	if prefix == "" {
		prefix = "evt"
	}
	return fmt.Sprintf("%s-%04d", prefix, s.n)
}
