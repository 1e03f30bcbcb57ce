package store

import (
	"context"
	"sync"

	"github.com/arteza/studio/internal/domain"
)

// Result is the outcome of a committed dispatch.
type Result struct {
	State     domain.CartState
	Notice    Notice
	HasNotice bool
}

// Store holds one cart and applies actions to it atomically.
type Store interface {
	// State returns a deep copy of the current state.
	State() domain.CartState
	// Dispatch applies a and returns the committed snapshot.
	Dispatch(ctx context.Context, a Action) (Result, error)
}

// MemoryStore is a Store that keeps its state in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	state domain.CartState
}

// NewMemoryStore returns a store starting from initial.
func NewMemoryStore(initial domain.CartState) *MemoryStore {
	return &MemoryStore{state: initial.Clone()}
}

// State implements Store.
func (s *MemoryStore) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch implements Store.
func (s *MemoryStore) Dispatch(_ context.Context, a Action) (Result, error) {
	if err := a.Validate(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, notice, ok := Reduce(s.state, a)
	s.state = next

	label := "none"
	if ok {
		label = string(notice.Kind)
	}
	operationsTotal.WithLabelValues(string(a.Kind), label).Inc()

	return Result{State: next.Clone(), Notice: notice, HasNotice: ok}, nil
}
