// Package mongo implements docstore.Store on MongoDB. The document id is kept
// in _id and stripped from returned data.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"murmur/internal/docstore"
	"murmur/internal/observability"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Store wraps one MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *observability.StreamLogger
}

var _ docstore.Store = (*Store)(nil)

// Connect opens a client for uri, pings the primary and selects database.
// Live listeners need a replica set or sharded cluster for change streams.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(database),
		log:    observability.NewStreamLogger("mongo"),
	}, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDocument(raw), nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id},
		withID(id, data),
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *Store) Update(ctx context.Context, collection, id string, updates ...docstore.Update) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, toUpdateDoc(updates))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	filter, opts := toFind(q)
	cur, err := s.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var rows []bson.M
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	docs := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, *toDocument(row))
	}
	return docs, nil
}

// Commit applies the writes in order. MongoDB batches here are not
// transactional; a failure leaves earlier writes in place.
func (s *Store) Commit(ctx context.Context, b *docstore.Batch) error {
	for i, w := range b.Writes {
		var err error
		switch w.Kind {
		case docstore.WriteSet:
			err = s.Set(ctx, w.Collection, w.ID, w.Data)
		case docstore.WriteUpdate:
			err = s.Update(ctx, w.Collection, w.ID, w.Updates...)
		case docstore.WriteDelete:
			err = s.Delete(ctx, w.Collection, w.ID)
		}
		if err != nil {
			return fmt.Errorf("batch write %d (%s/%s): %w", i, w.Collection, w.ID, err)
		}
	}
	return nil
}

func (s *Store) ListenDocument(ctx context.Context, collection, id string, fn docstore.DocumentListener) (docstore.Registration, error) {
	return s.watch(ctx, collection, collection+"/"+id, func(ctx context.Context) error {
		doc, err := s.Get(ctx, collection, id)
		if errors.Is(err, docstore.ErrNotFound) {
			fn(nil, nil)
			return nil
		}
		if err != nil {
			return err
		}
		fn(doc, nil)
		return nil
	}, func(err error) { fn(nil, err) })
}

func (s *Store) ListenQuery(ctx context.Context, q docstore.Query, fn docstore.QueryListener) (docstore.Registration, error) {
	return s.watch(ctx, q.Collection, q.Target(), func(ctx context.Context) error {
		docs, err := s.Query(ctx, q)
		if err != nil {
			return err
		}
		fn(docs, nil)
		return nil
	}, func(err error) { fn(nil, err) })
}

// watch opens a change stream on collection, emits the initial snapshot and
// re-runs emit after every change event.
func (s *Store) watch(ctx context.Context, collection, target string, emit func(context.Context) error, fail func(error)) (docstore.Registration, error) {
	lctx, cancel := context.WithCancel(ctx)
	cs, err := s.db.Collection(collection).Watch(lctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", collection, err)
	}

	var once sync.Once
	remove := func() {
		once.Do(cancel)
	}

	go func() {
		defer cs.Close(context.Background())
		if err := emit(lctx); err != nil {
			if lctx.Err() == nil {
				s.log.LogError(lctx, target, err)
				fail(err)
			}
			return
		}
		for cs.Next(lctx) {
			if err := emit(lctx); err != nil {
				if lctx.Err() == nil {
					s.log.LogError(lctx, target, err)
					fail(err)
				}
				return
			}
		}
		if err := cs.Err(); err != nil && lctx.Err() == nil {
			s.log.LogError(lctx, target, err)
			fail(err)
		}
	}()

	return docstore.RegistrationFunc(remove), nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func withID(id string, data map[string]any) bson.M {
	doc := bson.M{"_id": id}
	for k, v := range data {
		doc[k] = v
	}
	return doc
}

func toDocument(raw bson.M) *docstore.Document {
	id, _ := raw["_id"].(string)
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		data[k] = normalize(v)
	}
	return &docstore.Document{ID: id, Data: data}
}

// normalize converts driver container types to plain Go values.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case int32:
		return int64(t)
	case bson.DateTime:
		return t.Time().Unix()
	default:
		return v
	}
}

func toUpdateDoc(updates []docstore.Update) bson.M {
	set := bson.M{}
	inc := bson.M{}
	addToSet := bson.M{}
	pullAll := bson.M{}
	for _, u := range updates {
		switch op := u.Value.(type) {
		case docstore.IncrementOp:
			inc[u.Field] = op.N
		case docstore.ArrayUnionOp:
			addToSet[u.Field] = bson.M{"$each": op.Elems}
		case docstore.ArrayRemoveOp:
			pullAll[u.Field] = op.Elems
		default:
			set[u.Field] = u.Value
		}
	}
	doc := bson.M{}
	if len(set) > 0 {
		doc["$set"] = set
	}
	if len(inc) > 0 {
		doc["$inc"] = inc
	}
	if len(addToSet) > 0 {
		doc["$addToSet"] = addToSet
	}
	if len(pullAll) > 0 {
		doc["$pullAll"] = pullAll
	}
	return doc
}

func toFind(q docstore.Query) (bson.M, *options.FindOptionsBuilder) {
	filter := bson.M{}
	for _, f := range q.Filters {
		filter[f.Field] = f.Value
	}
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Direction == docstore.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}, {Key: "_id", Value: 1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return filter, opts
}
