// Package budget persists embedding token budget counters in the sqlite
// counters table.
package budget

import (
	"context"
	"fmt"
)

// Counters is the narrow sqlite surface the budget store needs.
type Counters interface {
	IncrBy(ctx context.Context, key string, val int64) error
	GetCounter(ctx context.Context, key string) (int64, error)
}

// Store implements the budget persistence contract on counters rows.
// Counter keys embed their period (budget:{provider}:daily:2006-01-02), so a
// new period simply starts a new row.
type Store struct {
	counters Counters
}

// New creates a budget store over the counters table.
func New(c Counters) *Store {
	return &Store{counters: c}
}

// IncrBy atomically increments the counter for key.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.counters.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget incr %s: %w", key, err)
	}
	return nil
}

// Get returns the current counter value. Returns 0 if the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	val, err := s.counters.GetCounter(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("budget get %s: %w", key, err)
	}
	return val, nil
}
