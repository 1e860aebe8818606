package memory

import (
	"context"
	"path/filepath"
	"testing"

	"murmur/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.yml")

	empty, err := Open(path)
	require.NoError(t, err)
	docs, err := empty.Query(ctx, docstore.NewQuery("posts"))
	require.NoError(t, err)
	assert.Empty(t, docs)

	s := New()
	require.NoError(t, s.Set(ctx, "posts", "p1", map[string]any{"likeCount": int64(3), "content": "hi"}))
	require.NoError(t, s.Set(ctx, "users", "u1", map[string]any{"likedPosts": []string{"p1"}}))
	require.NoError(t, s.Save(path))

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.Update(ctx, "posts", "p1", docstore.Set("likeCount", docstore.Increment(1))))
	doc, err := reopened.Get(ctx, "posts", "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, doc.Data["likeCount"])
	assert.Equal(t, "hi", doc.Data["content"])

	user, err := reopened.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, []any{"p1"}, user.Data["likedPosts"])
}
