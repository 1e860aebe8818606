// Package viewmodel holds screen state. Each view model owns a Store whose
// state changes only through reducers, and a scope that Close tears down.
package viewmodel

import (
	"context"
	"sync"
)

// Store is an observable state container.
type Store[S any] struct {
	mu    sync.Mutex
	state S
	subs  map[int]chan S
	next  int
}

// NewStore returns a store holding initial.
func NewStore[S any](initial S) *Store[S] {
	return &Store[S]{state: initial, subs: make(map[int]chan S)}
}

// State returns the current state.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update replaces the state with reduce(current) and notifies subscribers.
// reduce must not retain or mutate slices of the state it receives.
func (s *Store[S]) Update(reduce func(S) S) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = reduce(s.state)
	for _, ch := range s.subs {
		offer(ch, s.state)
	}
}

// Subscribe delivers the current state and then every later state. A slow
// reader only sees the latest state. The channel closes when ctx is done.
func (s *Store[S]) Subscribe(ctx context.Context) <-chan S {
	ch := make(chan S, 1)
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	ch <- s.state
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

func offer[S any](ch chan S, v S) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
