// Package optimistic implements the apply-locally, await-server,
// replace-or-rollback cycle shared by every editable collection.
package optimistic

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Store is a locally cached copy of a server-owned collection.
// The lock is never held while a remote call is in flight.
type Store[T any] struct {
	mu     sync.RWMutex
	items  []T
	loaded bool
}

// Items returns a copy of the current collection.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Loaded reports whether the collection was ever replaced from the server.
func (s *Store[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Replace swaps the whole collection for items.
func (s *Store[T]) Replace(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.Clone(items)
	s.loaded = true
}

// Reset forgets the collection.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.loaded = false
}

// Update applies fn to a copy of the collection and stores the result.
// It returns the collection as it was before the update.
func (s *Store[T]) Update(fn func([]T) []T) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := slices.Clone(s.items)
	s.items = fn(slices.Clone(s.items))
	return prev
}

// Fetch loads the canonical collection.
type Fetch[T any] func(ctx context.Context) ([]T, error)

type Mutation[T any] struct {
	// Apply is the local patch rendered before the server answers.
	Apply func([]T) []T
	// Call performs the remote mutation and returns the server's collection.
	Call Fetch[T]
	// Refetch loads the canonical collection after a failure.
	Refetch Fetch[T]
	// KeepLocal trusts the optimistic collection when Call succeeds.
	KeepLocal bool
	// RefetchOnSuccess replaces the collection with a fresh Refetch after a
	// successful Call, for mutations where the server reshuffles siblings.
	RefetchOnSuccess bool
	// Applied runs right after the local patch, before the remote call.
	Applied func()
}

// Mutate runs one optimistic mutation against s. A nil result means the
// server confirmed the change. On failure the optimistic state is discarded:
// the collection is replaced by a refetch, or restored to its previous value
// when the refetch fails too.
func Mutate[T any](ctx context.Context, s *Store[T], m Mutation[T]) error {
	prev := s.Update(m.Apply)
	if m.Applied != nil {
		m.Applied()
	}

	server, err := m.Call(ctx)
	if err == nil {
		switch {
		case m.RefetchOnSuccess:
			fresh, ferr := m.Refetch(ctx)
			if ferr != nil {
				return ferr
			}
			s.Replace(fresh)
		case !m.KeepLocal:
			s.Replace(server)
		}
		return nil
	}

	if m.Refetch == nil {
		s.Replace(prev)
		return err
	}
	fresh, ferr := m.Refetch(ctx)
	if ferr != nil {
		s.Replace(prev)
		return errors.Join(err, ferr)
	}
	s.Replace(fresh)
	return err
}
