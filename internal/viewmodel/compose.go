package viewmodel

import (
	"context"
	"strings"
	"unicode/utf8"

	"murmur/internal/models"
	"murmur/internal/service"
)

// ComposeUseCases is what the compose screen needs.
type ComposeUseCases interface {
	CreatePost(ctx context.Context, in service.PostInput) (*models.Post, error)
	EditPost(ctx context.Context, postID string, in service.PostInput) (*models.Post, error)
}

type ComposeState struct {
	Remaining  int
	CanSubmit  bool
	Submitting bool
	Error      string
	Posted     *models.Post
}

type ComposeViewModel struct {
	*Store[ComposeState]

	posts  ComposeUseCases
	ctx    context.Context
	cancel context.CancelFunc
}

func NewComposeViewModel(parent context.Context, posts ComposeUseCases) *ComposeViewModel {
	ctx, cancel := context.WithCancel(parent)
	return &ComposeViewModel{
		Store:  NewStore(ComposeState{Remaining: service.MaxContentLen}),
		posts:  posts,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetDraft recomputes the character budget for content.
func (vm *ComposeViewModel) SetDraft(content string, hasImage bool) {
	remaining := service.MaxContentLen - utf8.RuneCountInString(strings.TrimSpace(content))
	can := remaining >= 0 && (strings.TrimSpace(content) != "" || hasImage)
	vm.Update(func(s ComposeState) ComposeState {
		s.Remaining = remaining
		s.CanSubmit = can
		return s
	})
}

// Submit creates a post. It is ignored while a submission is in flight.
func (vm *ComposeViewModel) Submit(content string, image []byte) (*models.Post, error) {
	return vm.run(func() (*models.Post, error) {
		return vm.posts.CreatePost(vm.ctx, service.PostInput{Content: content, Image: image})
	})
}

// SubmitEdit rewrites an existing post.
func (vm *ComposeViewModel) SubmitEdit(postID, content string, image []byte) (*models.Post, error) {
	return vm.run(func() (*models.Post, error) {
		return vm.posts.EditPost(vm.ctx, postID, service.PostInput{Content: content, Image: image})
	})
}

func (vm *ComposeViewModel) Close() { vm.cancel() }

func (vm *ComposeViewModel) run(action func() (*models.Post, error)) (*models.Post, error) {
	busy := false
	vm.Update(func(s ComposeState) ComposeState {
		busy = s.Submitting
		s.Submitting = true
		s.Error = ""
		return s
	})
	if busy {
		return nil, models.NewValidationError("A post is already being submitted")
	}

	post, err := action()
	if err != nil {
		msg := models.UserMessage(err)
		vm.Update(func(s ComposeState) ComposeState {
			s.Submitting = false
			s.Error = msg
			return s
		})
		return nil, err
	}
	vm.Update(func(s ComposeState) ComposeState {
		s.Submitting = false
		s.Posted = post
		s.Remaining = service.MaxContentLen
		s.CanSubmit = false
		return s
	})
	return post, nil
}
