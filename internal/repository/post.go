package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"murmur/internal/blobstore"
	"murmur/internal/docstore"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/stream"
	"murmur/internal/timeline"

	"github.com/google/uuid"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	ObservePosts(ctx context.Context) (<-chan stream.Event[[]models.Post], error)
	ObserveUserPosts(ctx context.Context, uid string) (<-chan stream.Event[[]models.Post], error)
	ObserveTimeline(ctx context.Context) (<-chan stream.Event[[]models.Post], error)
	ObserveUserTimeline(ctx context.Context, uid string) (<-chan stream.Event[[]models.Post], error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	CreatePost(ctx context.Context, content string, image []byte) (*models.Post, error)
	EditPost(ctx context.Context, postID, content string, image []byte) (*models.Post, error)
	DeletePost(ctx context.Context, postID string) error
	LikePost(ctx context.Context, postID string) error
	UnlikePost(ctx context.Context, postID string) error
}

// postRepository implements PostRepository
type postRepository struct {
	store docstore.Store
	blobs blobstore.Store
	auth  AuthRepository
	users UserRepository
	log   *observability.RepoLogger
	now   func() time.Time
	newID func() string
}

// NewPostRepository creates a new post repository
func NewPostRepository(store docstore.Store, blobs blobstore.Store, auth AuthRepository, users UserRepository) PostRepository {
	return &postRepository{
		store: store,
		blobs: blobs,
		auth:  auth,
		users: users,
		log:   observability.NewRepoLogger(docstore.CollectionPosts),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func allPostsQuery() docstore.Query {
	return docstore.NewQuery(docstore.CollectionPosts).Order(models.PostFieldTimestamp, docstore.Desc)
}

// ObservePosts streams every post, newest first. IsLiked is not set.
func (r *postRepository) ObservePosts(ctx context.Context) (<-chan stream.Event[[]models.Post], error) {
	return listenQuery[models.Post](ctx, r.store, allPostsQuery())
}

// ObserveUserPosts streams one author's posts, newest first.
func (r *postRepository) ObserveUserPosts(ctx context.Context, uid string) (<-chan stream.Event[[]models.Post], error) {
	return listenQuery[models.Post](ctx, r.store, allPostsQuery().Where(models.PostFieldAuthorUID, uid))
}

// ObserveTimeline streams all posts annotated for the current viewer.
func (r *postRepository) ObserveTimeline(ctx context.Context) (<-chan stream.Event[[]models.Post], error) {
	return r.observeAnnotated(ctx, r.ObservePosts)
}

// ObserveUserTimeline streams uid's posts annotated for the current viewer.
func (r *postRepository) ObserveUserTimeline(ctx context.Context, uid string) (<-chan stream.Event[[]models.Post], error) {
	return r.observeAnnotated(ctx, func(ctx context.Context) (<-chan stream.Event[[]models.Post], error) {
		return r.ObserveUserPosts(ctx, uid)
	})
}

// observeAnnotated opens the posts and liked-set listeners under one scope.
// If either fails to open, the other is removed before returning.
func (r *postRepository) observeAnnotated(ctx context.Context, observe func(context.Context) (<-chan stream.Event[[]models.Post], error)) (<-chan stream.Event[[]models.Post], error) {
	ctx, cancel := context.WithCancel(ctx)
	posts, err := observe(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	liked, err := r.observeLiked(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	return timeline.MergeScoped(ctx, cancel, posts, liked), nil
}

// observeLiked streams the viewer's liked set. Without a viewer it returns a
// nil channel and the merge keeps the empty set.
func (r *postRepository) observeLiked(ctx context.Context) (<-chan stream.Event[models.LikedSet], error) {
	uid, ok := r.auth.CurrentUserID()
	if !ok {
		return nil, nil
	}
	profiles, err := r.users.ObserveProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	return stream.Map(ctx, profiles, func(p *models.UserProfile) models.LikedSet {
		if p == nil {
			return models.LikedSet{}
		}
		return p.LikedSet()
	}), nil
}

// GetPost reads one post. IsLiked is set when a viewer with a profile is logged in.
func (r *postRepository) GetPost(ctx context.Context, id string) (*models.Post, error) {
	defer observability.TrackStoreCall("get", docstore.CollectionPosts)()
	doc, err := r.store.Get(ctx, docstore.CollectionPosts, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, models.NewNotFoundError("Post", id)
	}
	if err != nil {
		r.log.LogError(ctx, err, "read")
		return nil, err
	}
	post, err := docstore.DecodeDocument[models.Post](*doc)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if profile, perr := r.users.GetCurrentProfile(ctx); perr == nil {
		post.IsLiked = profile.LikedSet().Contains(post.ID)
	}
	r.log.LogRead(ctx, map[string]interface{}{"post_id": id})
	return post, nil
}

// CreatePost uploads the image first, when present, then writes the post
// document with the uploaded image's public URL.
func (r *postRepository) CreatePost(ctx context.Context, content string, image []byte) (_ *models.Post, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "CreatePost", docstore.CollectionPosts)
	defer func() { observability.EndSpan(span, err) }()

	uid, ok := r.auth.CurrentUserID()
	if !ok {
		return nil, models.ErrNoUser
	}

	post := models.Post{
		ID:        r.newID(),
		Content:   content,
		Timestamp: r.now().Unix(),
		AuthorUID: uid,
	}

	profile, err := r.users.GetProfile(ctx, uid)
	switch {
	case err == nil:
		post.AuthorName = profile.DisplayName
		post.AuthorHandle = profile.Handle
		post.AuthorAvatarURL = profile.AvatarURL
	case models.ErrorCode(err) == models.CodeNotFound:
		r.log.LogWarn(ctx, "creating post without author profile", map[string]interface{}{"uid": uid})
	default:
		return nil, err
	}

	if len(image) > 0 {
		url, err := r.uploadPostImage(ctx, uid, post.ID, image)
		if err != nil {
			return nil, err
		}
		post.ImageURL = url
	}

	defer observability.TrackStoreCall("set", docstore.CollectionPosts)()
	if err := r.store.Set(ctx, docstore.CollectionPosts, post.ID, post.Document()); err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, err
	}
	r.log.LogCreate(ctx, map[string]interface{}{"post_id": post.ID, "has_image": post.HasImage()})
	return &post, nil
}

// EditPost rewrites the content of the viewer's own post and, when image is
// non-empty, replaces its image.
func (r *postRepository) EditPost(ctx context.Context, postID, content string, image []byte) (_ *models.Post, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "EditPost", docstore.CollectionPosts)
	defer func() { observability.EndSpan(span, err) }()

	post, err := r.authorOwnedPost(ctx, postID, "edit")
	if err != nil {
		return nil, err
	}

	post.Content = content
	updates := []docstore.Update{docstore.Set(models.PostFieldContent, content)}
	if len(image) > 0 {
		url, err := r.uploadPostImage(ctx, post.AuthorUID, post.ID, image)
		if err != nil {
			return nil, err
		}
		post.ImageURL = url
		updates = append(updates, docstore.Set(models.PostFieldImageURL, url))
	}

	defer observability.TrackStoreCall("update", docstore.CollectionPosts)()
	if err := r.store.Update(ctx, docstore.CollectionPosts, postID, updates...); err != nil {
		r.log.LogError(ctx, err, "update")
		return nil, err
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"post_id": postID})
	return post, nil
}

// DeletePost removes the viewer's own post. The image blob goes first, then
// the document; a failure between the two is not compensated.
func (r *postRepository) DeletePost(ctx context.Context, postID string) (err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "DeletePost", docstore.CollectionPosts)
	defer func() { observability.EndSpan(span, err) }()

	post, err := r.authorOwnedPost(ctx, postID, "delete")
	if err != nil {
		return err
	}

	if post.HasImage() {
		if path, ok := blobstore.PathFromURL(post.ImageURL, blobstore.BucketPostImages); ok {
			if err := r.blobs.Delete(ctx, blobstore.BucketPostImages, path); err != nil {
				r.log.LogError(ctx, err, "delete")
				return fmt.Errorf("delete post image: %w", err)
			}
		} else {
			r.log.LogWarn(ctx, "image url has no bucket prefix; skipping blob delete",
				map[string]interface{}{"post_id": postID, "image_url": post.ImageURL})
		}
	}

	defer observability.TrackStoreCall("delete", docstore.CollectionPosts)()
	if err := r.store.Delete(ctx, docstore.CollectionPosts, postID); err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}
	r.log.LogDelete(ctx, map[string]interface{}{"post_id": postID})
	return nil
}

// LikePost increments the post's like count and adds it to the viewer's liked
// set in one batch. It is not idempotent. Without a viewer it logs and returns
// nil without writing.
func (r *postRepository) LikePost(ctx context.Context, postID string) error {
	return r.toggleLike(ctx, postID, "like", 1, docstore.ArrayUnion(postID))
}

// UnlikePost is the inverse of LikePost, with the same caveats.
func (r *postRepository) UnlikePost(ctx context.Context, postID string) error {
	return r.toggleLike(ctx, postID, "unlike", -1, docstore.ArrayRemove(postID))
}

func (r *postRepository) toggleLike(ctx context.Context, postID, action string, delta int64, likedOp any) (err error) {
	uid, ok := r.auth.CurrentUserID()
	if !ok {
		// TODO: return models.ErrNoUser once callers surface it; today the UI treats this as success.
		r.log.LogWarn(ctx, action+" without a logged-in user; nothing written", map[string]interface{}{"post_id": postID})
		return nil
	}

	ctx, span := observability.TraceRepositoryMethod(ctx, action, docstore.CollectionPosts)
	defer func() { observability.EndSpan(span, err) }()
	defer func() { observability.LikeWrites.WithLabelValues(action, observability.Outcome(err)).Inc() }()

	batch := docstore.NewBatch().
		Update(docstore.CollectionPosts, postID, docstore.Set(models.PostFieldLikeCount, docstore.Increment(delta))).
		Update(docstore.CollectionUsers, uid, docstore.Set(models.UserFieldLikedPosts, likedOp))

	defer observability.TrackStoreCall("commit", docstore.CollectionPosts)()
	if err := r.store.Commit(ctx, batch); err != nil {
		r.log.LogError(ctx, err, action)
		return err
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"post_id": postID, "action": action, "uid": uid})
	return nil
}

// authorOwnedPost loads postID and checks that the viewer wrote it. No write
// happens before this check passes.
func (r *postRepository) authorOwnedPost(ctx context.Context, postID, action string) (*models.Post, error) {
	uid, ok := r.auth.CurrentUserID()
	if !ok {
		return nil, models.ErrNoUser
	}
	post, err := r.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorUID != uid {
		return nil, models.NewUnauthorizedError(fmt.Sprintf("You can only %s your own posts", action))
	}
	return post, nil
}

func (r *postRepository) uploadPostImage(ctx context.Context, uid, postID string, raw []byte) (string, error) {
	data, err := blobstore.PrepareImage(raw)
	if err != nil {
		return "", models.NewValidationError(fmt.Sprintf("Invalid image: %v", err))
	}
	path := blobstore.PostImagePath(uid, postID)
	if _, err := r.blobs.Upload(ctx, blobstore.BucketPostImages, path, data, blobstore.ContentTypeJPEG); err != nil {
		r.log.LogError(ctx, err, "upload")
		return "", err
	}
	return r.blobs.PublicURL(blobstore.BucketPostImages, path), nil
}
