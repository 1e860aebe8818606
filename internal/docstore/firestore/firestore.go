// Package firestore implements docstore.Store on Cloud Firestore.
package firestore

import (
	"context"
	"fmt"
	"sync"

	"murmur/internal/docstore"
	"murmur/internal/observability"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store wraps a Firestore client.
type Store struct {
	client *firestore.Client
	log    *observability.StreamLogger
}

var _ docstore.Store = (*Store)(nil)

// New connects to the Firestore project. FIRESTORE_EMULATOR_HOST is honored by
// the client library.
func New(ctx context.Context, projectID string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: client, log: observability.NewStreamLogger("firestore")}, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return &docstore.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, data)
	return mapError(err)
}

func (s *Store) Update(ctx context.Context, collection, id string, updates ...docstore.Update) error {
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, toUpdates(updates))
	return mapError(err)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return mapError(err)
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	snaps, err := s.query(q).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapError(err)
	}
	return toDocuments(snaps), nil
}

// Commit submits b as one Firestore write batch.
func (s *Store) Commit(ctx context.Context, b *docstore.Batch) error {
	wb := s.client.Batch()
	for _, w := range b.Writes {
		ref := s.client.Collection(w.Collection).Doc(w.ID)
		switch w.Kind {
		case docstore.WriteSet:
			wb.Set(ref, w.Data)
		case docstore.WriteUpdate:
			wb.Update(ref, toUpdates(w.Updates))
		case docstore.WriteDelete:
			wb.Delete(ref)
		}
	}
	_, err := wb.Commit(ctx)
	return mapError(err)
}

func (s *Store) ListenDocument(ctx context.Context, collection, id string, fn docstore.DocumentListener) (docstore.Registration, error) {
	lctx, cancel := context.WithCancel(ctx)
	it := s.client.Collection(collection).Doc(id).Snapshots(lctx)
	target := collection + "/" + id

	var stopped sync.Once
	var done = make(chan struct{})
	remove := func() {
		stopped.Do(func() {
			close(done)
			cancel()
			it.Stop()
		})
	}

	go func() {
		for {
			snap, err := it.Next()
			select {
			case <-done:
				return
			default:
			}
			if err != nil {
				s.log.LogError(lctx, target, err)
				fn(nil, mapError(err))
				remove()
				return
			}
			if !snap.Exists() {
				fn(nil, nil)
				continue
			}
			fn(&docstore.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil)
		}
	}()
	return docstore.RegistrationFunc(remove), nil
}

func (s *Store) ListenQuery(ctx context.Context, q docstore.Query, fn docstore.QueryListener) (docstore.Registration, error) {
	lctx, cancel := context.WithCancel(ctx)
	it := s.query(q).Snapshots(lctx)

	var stopped sync.Once
	var done = make(chan struct{})
	remove := func() {
		stopped.Do(func() {
			close(done)
			cancel()
			it.Stop()
		})
	}

	go func() {
		for {
			qs, err := it.Next()
			select {
			case <-done:
				return
			default:
			}
			if err != nil {
				s.log.LogError(lctx, q.Target(), err)
				fn(nil, mapError(err))
				remove()
				return
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				fn(nil, mapError(err))
				remove()
				return
			}
			fn(toDocuments(snaps), nil)
		}
	}()
	return docstore.RegistrationFunc(remove), nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) query(q docstore.Query) firestore.Query {
	fq := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Direction == docstore.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

func toUpdates(updates []docstore.Update) []firestore.Update {
	out := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		out = append(out, firestore.Update{Path: u.Field, Value: toValue(u.Value)})
	}
	return out
}

func toValue(v any) any {
	switch op := v.(type) {
	case docstore.IncrementOp:
		return firestore.Increment(op.N)
	case docstore.ArrayUnionOp:
		return firestore.ArrayUnion(op.Elems...)
	case docstore.ArrayRemoveOp:
		return firestore.ArrayRemove(op.Elems...)
	default:
		return v
	}
}

func toDocuments(snaps []*firestore.DocumentSnapshot) []docstore.Document {
	docs := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, docstore.Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %v", docstore.ErrNotFound, err)
	}
	return err
}
