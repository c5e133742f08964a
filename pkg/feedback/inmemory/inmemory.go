// Package inmemory provides a feedback store backed by a slice, for tests.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/clusterlens/clusterlens/pkg/feedback"
)

// Store keeps records in memory. FailWith, when set, makes Record fail with a
// storage error.
type Store struct {
	mu       sync.Mutex
	records  []feedback.Record
	FailWith error
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

func (s *Store) Record(_ context.Context, r feedback.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return &feedback.StorageError{Op: "append", Err: s.FailWith}
	}
	s.records = append(s.records, r)
	return nil
}

func (s *Store) List(_ context.Context) ([]feedback.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records), nil
}

func (s *Store) Close() error {
	return nil
}

var _ feedback.Store = (*Store)(nil)
