package viewmodel

import (
	"context"
	"testing"

	blobmem "murmur/internal/blobstore/memory"
	"murmur/internal/docstore"
	"murmur/internal/docstore/memory"
	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/service"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPosts struct {
	*service.PostService
	beforeLike func()
}

func (c capturingPosts) LikePost(ctx context.Context, id string) error {
	c.beforeLike()
	return c.PostService.LikePost(ctx, id)
}

func TestFeedViewModel_LikeRoundTripThroughStores(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	defer store.Close()
	auth := repository.NewAuthRepository(testutil.NewFakeIdentity("viewer"))
	blobs := blobmem.New("https://cdn.example.com")
	users := repository.NewUserRepository(store, blobs, auth)
	postSvc := service.NewPostService(repository.NewPostRepository(store, blobs, auth, users))

	require.NoError(t, testutil.SeedProfile(ctx, store, models.UserProfile{UID: "viewer", DisplayName: "V", Handle: "viewer"}))
	require.NoError(t, testutil.SeedPost(ctx, store, models.Post{ID: "p1", AuthorUID: "author", LikeCount: 5, Timestamp: 1}))

	var optimistic models.Post
	var vm *FeedViewModel
	posts := capturingPosts{PostService: postSvc, beforeLike: func() { optimistic = vm.State().Posts[0] }}
	vm = NewFeedViewModel(ctx, posts, nil, "")
	defer vm.Close()

	waitState(t, vm.Store, func(s FeedState) bool { return len(s.Posts) == 1 })
	require.NoError(t, vm.ToggleLike("p1"))

	assert.True(t, optimistic.IsLiked)
	assert.Equal(t, int64(6), optimistic.LikeCount)

	st := waitState(t, vm.Store, func(s FeedState) bool {
		return len(s.Posts) == 1 && s.Posts[0].LikeCount == 6 && s.Posts[0].IsLiked
	})
	assert.Empty(t, st.Error)

	doc, err := store.Get(ctx, docstore.CollectionUsers, "viewer")
	require.NoError(t, err)
	assert.Equal(t, []any{"p1"}, doc.Data[models.UserFieldLikedPosts])
}
