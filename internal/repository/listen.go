// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"murmur/internal/docstore"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/stream"
)

var streamLog = observability.NewStreamLogger("repository")

// listenQuery registers a query listener whose snapshots are decoded into T.
// The listener is removed when ctx is done.
func listenQuery[T any](ctx context.Context, store docstore.Store, q docstore.Query) (<-chan stream.Event[[]T], error) {
	return stream.FromListener(ctx, func(emit func(stream.Event[[]T])) (func(), error) {
		reg, err := store.ListenQuery(ctx, q, func(docs []docstore.Document, err error) {
			if err != nil {
				streamLog.LogError(ctx, q.Collection, err)
				emit(stream.Failure[[]T](err))
				return
			}
			vals, err := docstore.DecodeAll[T](docs)
			if err != nil {
				emit(stream.Failure[[]T](models.NewInternalError(err)))
				return
			}
			emit(stream.Value(vals))
		})
		if err != nil {
			return nil, err
		}
		return track(ctx, q.Collection, reg), nil
	})
}

// listenDocument registers a document listener. A missing document is
// delivered as a nil value.
func listenDocument[T any](ctx context.Context, store docstore.Store, collection, id string) (<-chan stream.Event[*T], error) {
	return stream.FromListener(ctx, func(emit func(stream.Event[*T])) (func(), error) {
		reg, err := store.ListenDocument(ctx, collection, id, func(doc *docstore.Document, err error) {
			if err != nil {
				streamLog.LogError(ctx, collection, err)
				emit(stream.Failure[*T](err))
				return
			}
			if doc == nil {
				emit(stream.Value[*T](nil))
				return
			}
			v, err := docstore.DecodeDocument[T](*doc)
			if err != nil {
				emit(stream.Failure[*T](models.NewInternalError(err)))
				return
			}
			emit(stream.Value(v))
		})
		if err != nil {
			return nil, err
		}
		return track(ctx, collection, reg), nil
	})
}

func track(ctx context.Context, target string, reg docstore.Registration) func() {
	observability.ActiveListeners.WithLabelValues(target).Inc()
	streamLog.LogRegister(ctx, target)
	return func() {
		reg.Remove()
		observability.ActiveListeners.WithLabelValues(target).Dec()
		streamLog.LogRemove(ctx, target)
	}
}
