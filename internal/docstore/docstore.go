// Package docstore defines the document-store contract shared by the memory,
// Firestore and MongoDB backends.
package docstore

import (
	"context"
	"errors"
)

// Collection names.
const (
	CollectionPosts    = "posts"
	CollectionUsers    = "users"
	CollectionAccounts = "accounts"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Document is a stored document: its id plus field data.
type Document struct {
	ID   string
	Data map[string]any
}

// Direction orders query results.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter is an equality predicate on one field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents from one collection.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
}

// NewQuery starts a query over collection.
func NewQuery(collection string) Query {
	return Query{Collection: collection}
}

// Where adds an equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// Order sets the order-by field.
func (q Query) Order(field string, dir Direction) Query {
	q.OrderBy = field
	q.Direction = dir
	return q
}

// Take limits the number of results. Zero means unlimited.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Target describes q for logs and metrics.
func (q Query) Target() string {
	return q.Collection + "?query"
}

// Update is one field change applied by Store.Update or a Batch.
// Value is either a plain value or one of the transforms below.
type Update struct {
	Field string
	Value any
}

// Set builds a plain field assignment.
func Set(field string, value any) Update {
	return Update{Field: field, Value: value}
}

// IncrementOp adds N to a numeric field. Missing fields count as zero.
type IncrementOp struct{ N int64 }

// ArrayUnionOp adds each element not already present.
type ArrayUnionOp struct{ Elems []any }

// ArrayRemoveOp removes every occurrence of each element.
type ArrayRemoveOp struct{ Elems []any }

// Increment is the atomic counter transform.
func Increment(n int64) IncrementOp { return IncrementOp{N: n} }

// ArrayUnion is the set-style array add transform.
func ArrayUnion(elems ...any) ArrayUnionOp { return ArrayUnionOp{Elems: elems} }

// ArrayRemove is the array remove transform.
func ArrayRemove(elems ...any) ArrayRemoveOp { return ArrayRemoveOp{Elems: elems} }

// WriteKind identifies a batched write.
type WriteKind int

const (
	WriteSet WriteKind = iota
	WriteUpdate
	WriteDelete
)

// Write is one operation in a Batch.
type Write struct {
	Kind       WriteKind
	Collection string
	ID         string
	Data       map[string]any
	Updates    []Update
}

// Batch collects writes that are submitted together with Store.Commit.
type Batch struct {
	Writes []Write
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Set queues a full document write.
func (b *Batch) Set(collection, id string, data map[string]any) *Batch {
	b.Writes = append(b.Writes, Write{Kind: WriteSet, Collection: collection, ID: id, Data: data})
	return b
}

// Update queues a field update.
func (b *Batch) Update(collection, id string, updates ...Update) *Batch {
	b.Writes = append(b.Writes, Write{Kind: WriteUpdate, Collection: collection, ID: id, Updates: updates})
	return b
}

// Delete queues a document deletion.
func (b *Batch) Delete(collection, id string) *Batch {
	b.Writes = append(b.Writes, Write{Kind: WriteDelete, Collection: collection, ID: id})
	return b
}

// DocumentListener receives document snapshots. doc is nil when the document
// does not exist. A non-nil err ends the listener.
type DocumentListener func(doc *Document, err error)

// QueryListener receives query result snapshots.
type QueryListener func(docs []Document, err error)

// Registration is a live listener. Remove is safe to call more than once.
type Registration interface {
	Remove()
}

// RegistrationFunc adapts a function to Registration.
type RegistrationFunc func()

// Remove calls f.
func (f RegistrationFunc) Remove() { f() }

// Store is the document-store contract.
//
// Update fails with ErrNotFound when the document is missing. Listeners deliver
// the current snapshot immediately after registration and again after each
// change that affects them.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Update(ctx context.Context, collection, id string, updates ...Update) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q Query) ([]Document, error)
	Commit(ctx context.Context, b *Batch) error
	ListenDocument(ctx context.Context, collection, id string, fn DocumentListener) (Registration, error)
	ListenQuery(ctx context.Context, q Query, fn QueryListener) (Registration, error)
	Close() error
}
