package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"murmur/internal/blobstore"
	"murmur/internal/docstore"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/stream"
)

// ProfileInput carries the editable profile fields. Avatar is optional raw
// image data.
type ProfileInput struct {
	DisplayName string
	Handle      string
	Avatar      []byte
}

// UserRepository defines the interface for user profile operations
type UserRepository interface {
	CreateProfile(ctx context.Context, in ProfileInput) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, in ProfileInput) (*models.UserProfile, error)
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	GetCurrentProfile(ctx context.Context) (*models.UserProfile, error)
	IsProfileComplete(ctx context.Context) (bool, error)
	ObserveProfile(ctx context.Context, uid string) (<-chan stream.Event[*models.UserProfile], error)
	IsHandleAvailable(ctx context.Context, handle string) (bool, error)
}

// userRepository implements UserRepository
type userRepository struct {
	store docstore.Store
	blobs blobstore.Store
	auth  AuthRepository
	log   *observability.RepoLogger
	now   func() time.Time
}

// NewUserRepository creates a new user repository
func NewUserRepository(store docstore.Store, blobs blobstore.Store, auth AuthRepository) UserRepository {
	return &userRepository{
		store: store,
		blobs: blobs,
		auth:  auth,
		log:   observability.NewRepoLogger(docstore.CollectionUsers),
		now:   time.Now,
	}
}

// CreateProfile writes the current user's profile. When a profile already
// exists only its name, handle, email and avatar are updated; likedPosts is
// left to the like batches.
func (r *userRepository) CreateProfile(ctx context.Context, in ProfileInput) (_ *models.UserProfile, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "CreateProfile", docstore.CollectionUsers)
	defer func() { observability.EndSpan(span, err) }()

	user, ok := r.auth.CurrentUser()
	if !ok {
		return nil, models.ErrNoUser
	}
	handle := models.NormalizeHandle(in.Handle)
	if err := r.ensureHandleFree(ctx, user.UID, handle); err != nil {
		return nil, err
	}

	existing, err := r.GetProfile(ctx, user.UID)
	if err != nil && models.ErrorCode(err) != models.CodeNotFound {
		return nil, err
	}

	var avatarURL string
	if len(in.Avatar) > 0 {
		if avatarURL, err = r.uploadAvatar(ctx, user.UID, in.Avatar); err != nil {
			return nil, err
		}
	}

	if existing != nil {
		return r.completeProfile(ctx, existing, user.Email, strings.TrimSpace(in.DisplayName), handle, avatarURL)
	}

	profile := models.UserProfile{
		UID:         user.UID,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Handle:      handle,
		Email:       user.Email,
		AvatarURL:   avatarURL,
		LikedPosts:  []string{},
		CreatedAt:   r.now().Unix(),
	}

	defer observability.TrackStoreCall("set", docstore.CollectionUsers)()
	if err := r.store.Set(ctx, docstore.CollectionUsers, user.UID, profile.Document()); err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, err
	}
	r.log.LogCreate(ctx, map[string]interface{}{"uid": user.UID, "handle": handle})
	return &profile, nil
}

func (r *userRepository) completeProfile(ctx context.Context, profile *models.UserProfile, email, displayName, handle, avatarURL string) (*models.UserProfile, error) {
	profile.DisplayName = displayName
	profile.Handle = handle
	profile.Email = email
	updates := []docstore.Update{
		docstore.Set(models.UserFieldDisplayName, displayName),
		docstore.Set(models.UserFieldHandle, handle),
		docstore.Set(models.UserFieldEmail, email),
	}
	if avatarURL != "" {
		profile.AvatarURL = avatarURL
		updates = append(updates, docstore.Set(models.UserFieldAvatarURL, avatarURL))
	}

	defer observability.TrackStoreCall("update", docstore.CollectionUsers)()
	if err := r.store.Update(ctx, docstore.CollectionUsers, profile.UID, updates...); err != nil {
		r.log.LogError(ctx, err, "update")
		return nil, err
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"uid": profile.UID, "handle": handle})
	return profile, nil
}

// UpdateProfile rewrites the display name, handle and optionally the avatar of
// the current user's existing profile.
func (r *userRepository) UpdateProfile(ctx context.Context, in ProfileInput) (_ *models.UserProfile, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "UpdateProfile", docstore.CollectionUsers)
	defer func() { observability.EndSpan(span, err) }()

	uid, ok := r.auth.CurrentUserID()
	if !ok {
		return nil, models.ErrNoUser
	}
	profile, err := r.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}

	handle := models.NormalizeHandle(in.Handle)
	if handle != profile.Handle {
		if err := r.ensureHandleFree(ctx, uid, handle); err != nil {
			return nil, err
		}
	}

	profile.DisplayName = strings.TrimSpace(in.DisplayName)
	profile.Handle = handle
	updates := []docstore.Update{
		docstore.Set(models.UserFieldDisplayName, profile.DisplayName),
		docstore.Set(models.UserFieldHandle, profile.Handle),
	}
	if len(in.Avatar) > 0 {
		url, err := r.uploadAvatar(ctx, uid, in.Avatar)
		if err != nil {
			return nil, err
		}
		profile.AvatarURL = url
		updates = append(updates, docstore.Set(models.UserFieldAvatarURL, url))
	}

	defer observability.TrackStoreCall("update", docstore.CollectionUsers)()
	if err := r.store.Update(ctx, docstore.CollectionUsers, uid, updates...); err != nil {
		r.log.LogError(ctx, err, "update")
		return nil, err
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"uid": uid})
	return profile, nil
}

func (r *userRepository) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	defer observability.TrackStoreCall("get", docstore.CollectionUsers)()
	doc, err := r.store.Get(ctx, docstore.CollectionUsers, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, models.NewNotFoundError("Profile", uid)
	}
	if err != nil {
		r.log.LogError(ctx, err, "read")
		return nil, err
	}
	profile, err := docstore.DecodeDocument[models.UserProfile](*doc)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	r.log.LogRead(ctx, map[string]interface{}{"uid": uid})
	return profile, nil
}

func (r *userRepository) GetCurrentProfile(ctx context.Context) (*models.UserProfile, error) {
	uid, ok := r.auth.CurrentUserID()
	if !ok {
		return nil, models.ErrNoUser
	}
	return r.GetProfile(ctx, uid)
}

// IsProfileComplete is true iff the current user's profile exists and has a
// non-blank display name.
func (r *userRepository) IsProfileComplete(ctx context.Context) (bool, error) {
	profile, err := r.GetCurrentProfile(ctx)
	if models.ErrorCode(err) == models.CodeNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return profile.IsComplete(), nil
}

// ObserveProfile streams uid's profile. A missing profile is a nil value.
func (r *userRepository) ObserveProfile(ctx context.Context, uid string) (<-chan stream.Event[*models.UserProfile], error) {
	return listenDocument[models.UserProfile](ctx, r.store, docstore.CollectionUsers, uid)
}

// IsHandleAvailable reports whether handle is free or already owned by the
// current user.
func (r *userRepository) IsHandleAvailable(ctx context.Context, handle string) (bool, error) {
	owner, err := r.handleOwner(ctx, models.NormalizeHandle(handle))
	if err != nil {
		return false, err
	}
	if owner == "" {
		return true, nil
	}
	uid, _ := r.auth.CurrentUserID()
	return owner == uid, nil
}

func (r *userRepository) ensureHandleFree(ctx context.Context, uid, handle string) error {
	owner, err := r.handleOwner(ctx, handle)
	if err != nil {
		return err
	}
	if owner != "" && owner != uid {
		return &models.AppError{Code: models.CodeHandleTaken, Message: fmt.Sprintf("@%s is already taken", handle)}
	}
	return nil
}

func (r *userRepository) handleOwner(ctx context.Context, handle string) (string, error) {
	defer observability.TrackStoreCall("query", docstore.CollectionUsers)()
	docs, err := r.store.Query(ctx, docstore.NewQuery(docstore.CollectionUsers).Where(models.UserFieldHandle, handle).Take(1))
	if err != nil {
		r.log.LogError(ctx, err, "read")
		return "", err
	}
	if len(docs) == 0 {
		return "", nil
	}
	return docs[0].ID, nil
}

func (r *userRepository) uploadAvatar(ctx context.Context, uid string, raw []byte) (string, error) {
	data, err := blobstore.PrepareImage(raw)
	if err != nil {
		return "", models.NewValidationError(fmt.Sprintf("Invalid avatar: %v", err))
	}
	path := blobstore.AvatarPath(uid)
	if _, err := r.blobs.Upload(ctx, blobstore.BucketAvatars, path, data, blobstore.ContentTypeJPEG); err != nil {
		return "", err
	}
	return r.blobs.PublicURL(blobstore.BucketAvatars, path), nil
}
