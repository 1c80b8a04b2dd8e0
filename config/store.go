package config

import (
	"fmt"
	"sync"
)

// Store holds the live configuration. Nodes take one Snapshot per tick and
// pass the copy down, so no computation ever holds the lock.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update applies fn to a copy and swaps it in only if the result validates.
func (s *Store) Update(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cfg
	fn(&next)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("rejected config update: %w", err)
	}
	s.cfg = next
	return nil
}
