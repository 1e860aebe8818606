// Package stream bridges callback-style snapshot listeners into channels whose
// lifetime is bound to a context.
package stream

import (
	"context"
	"sync"
)

// Event is one emission of a live stream: either a value or a failure.
type Event[T any] struct {
	Value T
	Err   error
}

// Value wraps v as a successful event.
func Value[T any](v T) Event[T] {
	return Event[T]{Value: v}
}

// Failure wraps err as a failed event.
func Failure[T any](err error) Event[T] {
	return Event[T]{Err: err}
}

// RegisterFunc registers a listener that reports through emit and returns the
// function that unregisters it.
type RegisterFunc[T any] func(emit func(Event[T])) (remove func(), err error)

// FromListener registers a listener and exposes its emissions on a channel.
//
// Emissions are conflated: if the consumer falls behind, only the most recent
// pending event is kept, which is the right behavior for snapshots. When ctx is
// done the listener is removed and the channel closed. remove is called exactly once.
func FromListener[T any](ctx context.Context, register RegisterFunc[T]) (<-chan Event[T], error) {
	box := &mailbox[T]{notify: make(chan struct{}, 1)}

	remove, err := register(box.put)
	if err != nil {
		return nil, err
	}

	out := make(chan Event[T])
	go func() {
		defer close(out)
		defer remove()
		for {
			select {
			case <-ctx.Done():
				return
			case <-box.notify:
			}
			ev, ok := box.take()
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

type mailbox[T any] struct {
	mu      sync.Mutex
	pending *Event[T]
	notify  chan struct{}
}

func (m *mailbox[T]) put(ev Event[T]) {
	m.mu.Lock()
	m.pending = &ev
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *mailbox[T]) take() (Event[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return Event[T]{}, false
	}
	ev := *m.pending
	m.pending = nil
	return ev, true
}

// Map transforms the values of in, passing failures through unchanged.
// The output closes when in closes or ctx is done.
func Map[A, B any](ctx context.Context, in <-chan Event[A], fn func(A) B) <-chan Event[B] {
	out := make(chan Event[B])
	go func() {
		defer close(out)
		for {
			var ev Event[A]
			var ok bool
			select {
			case <-ctx.Done():
				return
			case ev, ok = <-in:
				if !ok {
					return
				}
			}
			var mapped Event[B]
			if ev.Err != nil {
				mapped = Failure[B](ev.Err)
			} else {
				mapped = Value(fn(ev.Value))
			}
			select {
			case out <- mapped:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
