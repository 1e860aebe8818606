package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/stream"
)

// MaxContentLen is the longest post body accepted, in characters.
const MaxContentLen = 500

type PostService struct {
	postRepo repository.PostRepository
}

// PostInput is the compose form. Image is raw image data and may be empty.
type PostInput struct {
	Content string
	Image   []byte
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

func (s *PostService) ObserveTimeline(ctx context.Context) (<-chan stream.Event[[]models.Post], error) {
	return s.postRepo.ObserveTimeline(ctx)
}

func (s *PostService) ObserveUserTimeline(ctx context.Context, uid string) (<-chan stream.Event[[]models.Post], error) {
	if uid == "" {
		return nil, models.NewValidationError("User id is required")
	}
	return s.postRepo.ObserveUserTimeline(ctx, uid)
}

func (s *PostService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	if postID == "" {
		return nil, models.NewValidationError("Post id is required")
	}
	return s.postRepo.GetPost(ctx, postID)
}

func (s *PostService) CreatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	content, err := validatePost(in)
	if err != nil {
		return nil, err
	}
	return s.postRepo.CreatePost(ctx, content, in.Image)
}

func (s *PostService) EditPost(ctx context.Context, postID string, in PostInput) (*models.Post, error) {
	if postID == "" {
		return nil, models.NewValidationError("Post id is required")
	}
	content, err := validatePost(in)
	if err != nil {
		return nil, err
	}
	return s.postRepo.EditPost(ctx, postID, content, in.Image)
}

func (s *PostService) DeletePost(ctx context.Context, postID string) error {
	if postID == "" {
		return models.NewValidationError("Post id is required")
	}
	return s.postRepo.DeletePost(ctx, postID)
}

func (s *PostService) LikePost(ctx context.Context, postID string) error {
	if postID == "" {
		return models.NewValidationError("Post id is required")
	}
	return s.postRepo.LikePost(ctx, postID)
}

func (s *PostService) UnlikePost(ctx context.Context, postID string) error {
	if postID == "" {
		return models.NewValidationError("Post id is required")
	}
	return s.postRepo.UnlikePost(ctx, postID)
}

// validatePost returns the trimmed content. Blank content is allowed only
// with an image.
func validatePost(in PostInput) (string, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && len(in.Image) == 0 {
		return "", models.NewValidationError("Write something or attach an image")
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return "", models.NewValidationError("Content too long (max 500 characters)")
	}
	return content, nil
}
