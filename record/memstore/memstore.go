// Package memstore provides an in-memory record.Client for tests and dev mode.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Omniportal2025/omniportal-core/record"
)

// =============================================================================
// MEMORY CLIENT - In-memory implementation (insertion order preserved)
// =============================================================================

type Store struct {
	mu          sync.RWMutex
	collections map[string][]record.Row
}

func New() *Store {
	return &Store{collections: make(map[string][]record.Row)}
}

// Get returns the first row matching key.
func (s *Store) Get(_ context.Context, collection string, key record.Filter) (record.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.collections[collection] {
		if key.Matches(row) {
			return row.Clone(), nil
		}
	}
	return nil, record.ErrNotFound
}

// List returns copies of all matching rows in insertion order.
func (s *Store) List(_ context.Context, collection string, filter record.Filter) ([]record.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []record.Row
	for _, row := range s.collections[collection] {
		if filter.Matches(row) {
			result = append(result, row.Clone())
		}
	}
	return result, nil
}

// Insert appends a copy of the row, assigning an id when absent.
func (s *Store) Insert(_ context.Context, collection string, row record.Row) (record.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := row.Clone()
	if stored[record.FieldID] == "" {
		stored[record.FieldID] = uuid.NewString()
	}
	s.collections[collection] = append(s.collections[collection], stored)
	return stored.Clone(), nil
}

// Update patches every matching row in place. Last write wins.
func (s *Store) Update(_ context.Context, collection string, key record.Filter, patch record.Row) (record.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first record.Row
	for _, row := range s.collections[collection] {
		if !key.Matches(row) {
			continue
		}
		for k, v := range patch {
			if v == "" {
				delete(row, k)
				continue
			}
			row[k] = v
		}
		if first == nil {
			first = row.Clone()
		}
	}
	if first == nil {
		return nil, record.ErrNotFound
	}
	return first, nil
}

// Reset clears every collection (for dev/demo seeding).
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string][]record.Row)
	return nil
}

// Delete removes every matching row and returns the count.
func (s *Store) Delete(_ context.Context, collection string, filter record.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.collections[collection]
	kept := rows[:0]
	deleted := 0
	for _, row := range rows {
		if filter.Matches(row) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	s.collections[collection] = kept
	return deleted, nil
}
