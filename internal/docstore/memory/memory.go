// Package memory is an in-process docstore.Store used by tests, demos and the
// memory store backend.
package memory

import (
	"context"
	"errors"
	"sync"

	"murmur/internal/docstore"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("memory docstore: closed")

// Store keeps documents in maps guarded by a RWMutex. Listeners are
// re-evaluated asynchronously after each write; notifications coalesce, so a
// slow listener sees only the latest state.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	listeners   map[uint64]*listener
	nextID      uint64
	closed      bool
}

type listener struct {
	collection string
	notify     chan struct{}
	done       chan struct{}
	once       sync.Once
	eval       func()

	failMu sync.Mutex
	fail   error
	onFail func(error)
}

// New returns an empty store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]any),
		listeners:   make(map[uint64]*listener),
	}
}

var _ docstore.Store = (*Store)(nil)

func (s *Store) Get(_ context.Context, collection, id string) (*docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	data, ok := s.collections[collection][id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return &docstore.Document{ID: id, Data: docstore.CopyData(data)}, nil
}

func (s *Store) Set(_ context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.setLocked(collection, id, data)
	s.mu.Unlock()
	s.notifyAll()
	return nil
}

func (s *Store) Update(_ context.Context, collection, id string, updates ...docstore.Update) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	err := s.updateLocked(collection, id, updates)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notifyAll()
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()
	s.notifyAll()
	return nil
}

func (s *Store) Query(_ context.Context, q docstore.Query) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.queryLocked(q), nil
}

// Commit validates every update target first and then applies all writes
// under one lock, so a batch is all-or-nothing in this backend.
func (s *Store) Commit(_ context.Context, b *docstore.Batch) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	staged := make(map[string]map[string]map[string]any)
	stage := func(collection, id string) (map[string]any, bool) {
		if byID, ok := staged[collection]; ok {
			if data, ok := byID[id]; ok {
				return data, data != nil
			}
		} else {
			staged[collection] = make(map[string]map[string]any)
		}
		data, ok := s.collections[collection][id]
		if !ok {
			staged[collection][id] = nil
			return nil, false
		}
		cp := docstore.CopyData(data)
		staged[collection][id] = cp
		return cp, true
	}

	for _, w := range b.Writes {
		switch w.Kind {
		case docstore.WriteSet:
			if _, ok := staged[w.Collection]; !ok {
				staged[w.Collection] = make(map[string]map[string]any)
			}
			staged[w.Collection][w.ID] = docstore.CopyData(w.Data)
		case docstore.WriteUpdate:
			data, ok := stage(w.Collection, w.ID)
			if !ok {
				s.mu.Unlock()
				return docstore.ErrNotFound
			}
			if err := docstore.ApplyUpdates(data, w.Updates); err != nil {
				s.mu.Unlock()
				return err
			}
		case docstore.WriteDelete:
			stage(w.Collection, w.ID)
			staged[w.Collection][w.ID] = nil
		}
	}

	for collection, byID := range staged {
		for id, data := range byID {
			if data == nil {
				delete(s.collections[collection], id)
				continue
			}
			s.setLocked(collection, id, data)
		}
	}
	s.mu.Unlock()
	s.notifyAll()
	return nil
}

func (s *Store) ListenDocument(_ context.Context, collection, id string, fn docstore.DocumentListener) (docstore.Registration, error) {
	l := &listener{collection: collection}
	l.onFail = func(err error) { fn(nil, err) }
	l.eval = func() {
		s.mu.RLock()
		data, ok := s.collections[collection][id]
		var doc *docstore.Document
		if ok {
			doc = &docstore.Document{ID: id, Data: docstore.CopyData(data)}
		}
		s.mu.RUnlock()
		fn(doc, nil)
	}
	return s.register(l)
}

func (s *Store) ListenQuery(_ context.Context, q docstore.Query, fn docstore.QueryListener) (docstore.Registration, error) {
	l := &listener{collection: q.Collection}
	l.onFail = func(err error) { fn(nil, err) }
	l.eval = func() {
		s.mu.RLock()
		docs := s.queryLocked(q)
		s.mu.RUnlock()
		fn(docs, nil)
	}
	return s.register(l)
}

// FailListeners delivers err to every listener on collection and removes them,
// the way a remote store ends a listener after a permission or network error.
func (s *Store) FailListeners(collection string, err error) {
	s.mu.RLock()
	var targets []*listener
	for _, l := range s.listeners {
		if l.collection == collection {
			targets = append(targets, l)
		}
	}
	s.mu.RUnlock()
	for _, l := range targets {
		l.failMu.Lock()
		l.fail = err
		l.failMu.Unlock()
		l.poke()
	}
}

// ListenerCount returns the number of registered listeners.
func (s *Store) ListenerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ls := s.listeners
	s.listeners = make(map[uint64]*listener)
	s.mu.Unlock()
	for _, l := range ls {
		l.stop()
	}
	return nil
}

func (s *Store) register(l *listener) (docstore.Registration, error) {
	l.notify = make(chan struct{}, 1)
	l.done = make(chan struct{})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.nextID++
	id := s.nextID
	s.listeners[id] = l
	s.mu.Unlock()

	remove := func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
		l.stop()
	}

	go func() {
		for {
			select {
			case <-l.done:
				return
			case <-l.notify:
			}
			l.failMu.Lock()
			err := l.fail
			l.failMu.Unlock()
			if err != nil {
				l.onFail(err)
				remove()
				return
			}
			l.eval()
		}
	}()
	l.poke()

	return docstore.RegistrationFunc(remove), nil
}

func (l *listener) poke() {
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

func (l *listener) stop() {
	l.once.Do(func() { close(l.done) })
}

func (s *Store) notifyAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.listeners {
		l.poke()
	}
}

func (s *Store) setLocked(collection, id string, data map[string]any) {
	byID, ok := s.collections[collection]
	if !ok {
		byID = make(map[string]map[string]any)
		s.collections[collection] = byID
	}
	byID[id] = docstore.CopyData(data)
}

func (s *Store) updateLocked(collection, id string, updates []docstore.Update) error {
	data, ok := s.collections[collection][id]
	if !ok {
		return docstore.ErrNotFound
	}
	cp := docstore.CopyData(data)
	if err := docstore.ApplyUpdates(cp, updates); err != nil {
		return err
	}
	s.collections[collection][id] = cp
	return nil
}

func (s *Store) queryLocked(q docstore.Query) []docstore.Document {
	var docs []docstore.Document
	for id, data := range s.collections[q.Collection] {
		if docstore.Matches(q, data) {
			docs = append(docs, docstore.Document{ID: id, Data: docstore.CopyData(data)})
		}
	}
	if docs == nil {
		docs = []docstore.Document{}
	}
	return docstore.SortAndLimit(q, docs)
}
