package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"murmur/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	_, err := s.Get(ctx, "posts", "p1")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	require.NoError(t, s.Set(ctx, "posts", "p1", map[string]any{"id": "p1", "likeCount": int64(0)}))
	require.NoError(t, s.Update(ctx, "posts", "p1", docstore.Set("likeCount", docstore.Increment(2))))

	doc, err := s.Get(ctx, "posts", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Data["likeCount"])

	// Returned data is a copy.
	doc.Data["likeCount"] = int64(99)
	again, _ := s.Get(ctx, "posts", "p1")
	assert.Equal(t, int64(2), again.Data["likeCount"])

	assert.ErrorIs(t, s.Update(ctx, "posts", "missing", docstore.Set("x", 1)), docstore.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "posts", "p1"))
	_, err = s.Get(ctx, "posts", "p1")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_CommitIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	require.NoError(t, s.Set(ctx, "posts", "p1", map[string]any{"likeCount": int64(1)}))

	b := docstore.NewBatch().
		Update("posts", "p1", docstore.Set("likeCount", docstore.Increment(1))).
		Update("users", "ghost", docstore.Set("likedPosts", docstore.ArrayUnion("p1")))
	assert.ErrorIs(t, s.Commit(ctx, b), docstore.ErrNotFound)

	doc, err := s.Get(ctx, "posts", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Data["likeCount"])

	require.NoError(t, s.Set(ctx, "users", "u1", map[string]any{"likedPosts": []string{}}))
	b = docstore.NewBatch().
		Update("posts", "p1", docstore.Set("likeCount", docstore.Increment(1))).
		Update("users", "u1", docstore.Set("likedPosts", docstore.ArrayUnion("p1")))
	require.NoError(t, s.Commit(ctx, b))

	doc, _ = s.Get(ctx, "posts", "p1")
	assert.Equal(t, int64(2), doc.Data["likeCount"])
	user, _ := s.Get(ctx, "users", "u1")
	assert.Equal(t, []any{"p1"}, user.Data["likedPosts"])
}

type recorder[T any] struct {
	mu   sync.Mutex
	seen []T
	errs []error
}

func (r *recorder[T]) add(v T, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.errs = append(r.errs, err)
		return
	}
	r.seen = append(r.seen, v)
}

func (r *recorder[T]) last() (T, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if len(r.seen) == 0 {
		return zero, 0
	}
	return r.seen[len(r.seen)-1], len(r.seen)
}

func (r *recorder[T]) errCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func TestStore_ListenQuery_InitialAndChanges(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	require.NoError(t, s.Set(ctx, "posts", "old", map[string]any{"timestamp": int64(1)}))

	rec := &recorder[[]docstore.Document]{}
	reg, err := s.ListenQuery(ctx, docstore.NewQuery("posts").Order("timestamp", docstore.Desc), rec.add)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		docs, n := rec.last()
		return n >= 1 && len(docs) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Set(ctx, "posts", "new", map[string]any{"timestamp": int64(2)}))
	assert.Eventually(t, func() bool {
		docs, _ := rec.last()
		return len(docs) == 2 && docs[0].ID == "new"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, s.ListenerCount())
	reg.Remove()
	reg.Remove()
	assert.Equal(t, 0, s.ListenerCount())
}

func TestStore_ListenDocument_MissingThenCreated(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	rec := &recorder[*docstore.Document]{}
	reg, err := s.ListenDocument(ctx, "users", "u1", rec.add)
	require.NoError(t, err)
	defer reg.Remove()

	assert.Eventually(t, func() bool {
		doc, n := rec.last()
		return n >= 1 && doc == nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Set(ctx, "users", "u1", map[string]any{"uid": "u1"}))
	assert.Eventually(t, func() bool {
		doc, _ := rec.last()
		return doc != nil && doc.Data["uid"] == "u1"
	}, time.Second, 5*time.Millisecond)
}

func TestStore_FailListenersEndsRegistration(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	rec := &recorder[[]docstore.Document]{}
	_, err := s.ListenQuery(ctx, docstore.NewQuery("posts"), rec.add)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { _, n := rec.last(); return n >= 1 }, time.Second, 5*time.Millisecond)

	s.FailListeners("posts", errors.New("permission denied"))
	assert.Eventually(t, func() bool { return rec.errCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return s.ListenerCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStore_ClosedRejectsCalls(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Set(context.Background(), "posts", "p", map[string]any{}), ErrClosed)
	_, err := s.ListenQuery(context.Background(), docstore.NewQuery("posts"), func([]docstore.Document, error) {})
	assert.ErrorIs(t, err, ErrClosed)
}
