package viewmodel

import (
	"context"
	"sync"

	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/stream"
)

// FeedPosts is what the feed needs from the post use cases.
type FeedPosts interface {
	ObserveTimeline(ctx context.Context) (<-chan stream.Event[[]models.Post], error)
	ObserveUserTimeline(ctx context.Context, uid string) (<-chan stream.Event[[]models.Post], error)
	LikePost(ctx context.Context, postID string) error
	UnlikePost(ctx context.Context, postID string) error
	DeletePost(ctx context.Context, postID string) error
}

// Connectivity reports network transitions.
type Connectivity interface {
	OnConnected(fn func(hasInternet bool))
	OnDisconnected(fn func())
	StartObserving(ctx context.Context)
	StopObserving()
}

// FeedState is what the timeline screen renders.
type FeedState struct {
	Posts   []models.Post
	Loading bool
	Error   string
	Offline bool
}

// FeedViewModel drives the timeline screen, or one author's timeline when
// AuthorUID is set.
type FeedViewModel struct {
	*Store[FeedState]

	posts     FeedPosts
	conn      Connectivity
	authorUID string

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	subCancel context.CancelFunc
	closed    bool
	wg        sync.WaitGroup
}

// NewFeedViewModel subscribes to the timeline immediately. conn may be nil.
func NewFeedViewModel(parent context.Context, posts FeedPosts, conn Connectivity, authorUID string) *FeedViewModel {
	ctx, cancel := context.WithCancel(parent)
	vm := &FeedViewModel{
		Store:     NewStore(FeedState{Loading: true}),
		posts:     posts,
		conn:      conn,
		authorUID: authorUID,
		ctx:       ctx,
		cancel:    cancel,
	}
	if conn != nil {
		conn.OnConnected(func(bool) { vm.setOnline() })
		conn.OnDisconnected(func() {
			vm.Update(func(s FeedState) FeedState { s.Offline = true; return s })
		})
		conn.StartObserving(ctx)
	}
	vm.subscribe()
	return vm
}

// Refresh drops the current subscription and starts a new one.
func (vm *FeedViewModel) Refresh() {
	vm.subscribe()
}

func (vm *FeedViewModel) subscribe() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	if vm.subCancel != nil {
		vm.subCancel()
	}
	ctx, cancel := context.WithCancel(vm.ctx)
	vm.subCancel = cancel
	vm.wg.Add(1)
	vm.mu.Unlock()

	vm.Update(func(s FeedState) FeedState {
		s.Loading = true
		s.Error = ""
		return s
	})

	var (
		ch  <-chan stream.Event[[]models.Post]
		err error
	)
	if vm.authorUID != "" {
		ch, err = vm.posts.ObserveUserTimeline(ctx, vm.authorUID)
	} else {
		ch, err = vm.posts.ObserveTimeline(ctx)
	}
	if err != nil {
		cancel()
		vm.wg.Done()
		vm.fail(err)
		return
	}

	go func() {
		defer vm.wg.Done()
		for ev := range ch {
			if ctx.Err() != nil {
				return
			}
			if ev.Err != nil {
				vm.fail(ev.Err)
				continue
			}
			posts := ev.Value
			vm.Update(func(s FeedState) FeedState {
				s.Posts = posts
				s.Loading = false
				s.Error = ""
				return s
			})
		}
	}()
}

// ToggleLike flips the post's liked flag and count locally, then writes. A
// failed write is surfaced in Error and the local change stays until the
// timeline next emits.
func (vm *FeedViewModel) ToggleLike(postID string) error {
	var wasLiked, found bool
	vm.Update(func(s FeedState) FeedState {
		posts := make([]models.Post, len(s.Posts))
		copy(posts, s.Posts)
		for i := range posts {
			if posts[i].ID != postID {
				continue
			}
			found = true
			wasLiked = posts[i].IsLiked
			posts[i].IsLiked = !wasLiked
			if wasLiked {
				posts[i].LikeCount = max(0, posts[i].LikeCount-1)
			} else {
				posts[i].LikeCount++
			}
		}
		s.Posts = posts
		return s
	})
	if !found {
		return models.NewNotFoundError("Post", postID)
	}

	var err error
	action := "like"
	if wasLiked {
		action = "unlike"
		err = vm.posts.UnlikePost(vm.ctx, postID)
	} else {
		err = vm.posts.LikePost(vm.ctx, postID)
	}
	if err != nil {
		observability.LogAsyncOperationError(vm.ctx, action, err, map[string]interface{}{
			"post_id":         postID,
			"optimistic_kept": true,
		})
		vm.fail(err)
	}
	return err
}

// DeletePost asks for deletion; the post leaves the list when the timeline
// emits without it.
func (vm *FeedViewModel) DeletePost(postID string) error {
	err := vm.posts.DeletePost(vm.ctx, postID)
	if err != nil {
		vm.fail(err)
	}
	return err
}

// ClearError dismisses the error text.
func (vm *FeedViewModel) ClearError() {
	vm.Update(func(s FeedState) FeedState { s.Error = ""; return s })
}

// Close ends every subscription and stops connectivity observation.
func (vm *FeedViewModel) Close() {
	vm.mu.Lock()
	vm.closed = true
	vm.mu.Unlock()
	vm.cancel()
	if vm.conn != nil {
		vm.conn.StopObserving()
	}
	vm.wg.Wait()
}

func (vm *FeedViewModel) setOnline() {
	wasOffline := false
	vm.Update(func(s FeedState) FeedState {
		wasOffline = s.Offline
		s.Offline = false
		return s
	})
	if wasOffline {
		vm.Refresh()
	}
}

func (vm *FeedViewModel) fail(err error) {
	msg := models.UserMessage(err)
	vm.Update(func(s FeedState) FeedState {
		s.Loading = false
		s.Error = msg
		return s
	})
}
