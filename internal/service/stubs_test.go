package service

import (
	"context"
	"testing"

	"murmur/internal/identity"
	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/stream"
)

// authRepoStub is a stub for repository.AuthRepository.
type authRepoStub struct {
	signUpFn      func(context.Context, string, string) error
	loginFn       func(context.Context, string, string) error
	logoutFn      func(context.Context) error
	currentUserFn func() (identity.User, bool)
}

func (s *authRepoStub) SignUp(ctx context.Context, email, password string) error {
	return s.signUpFn(ctx, email, password)
}
func (s *authRepoStub) Login(ctx context.Context, email, password string) error {
	return s.loginFn(ctx, email, password)
}
func (s *authRepoStub) Logout(ctx context.Context) error { return s.logoutFn(ctx) }
func (s *authRepoStub) IsLoggedIn() bool {
	_, ok := s.currentUserFn()
	return ok
}
func (s *authRepoStub) CurrentUserID() (string, bool) {
	u, ok := s.currentUserFn()
	return u.UID, ok
}
func (s *authRepoStub) CurrentUser() (identity.User, bool) { return s.currentUserFn() }

func noopAuthRepo() *authRepoStub {
	return &authRepoStub{
		signUpFn:      func(context.Context, string, string) error { return nil },
		loginFn:       func(context.Context, string, string) error { return nil },
		logoutFn:      func(context.Context) error { return nil },
		currentUserFn: func() (identity.User, bool) { return identity.User{}, false },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createProfileFn     func(context.Context, repository.ProfileInput) (*models.UserProfile, error)
	updateProfileFn     func(context.Context, repository.ProfileInput) (*models.UserProfile, error)
	getProfileFn        func(context.Context, string) (*models.UserProfile, error)
	getCurrentProfileFn func(context.Context) (*models.UserProfile, error)
	isProfileCompleteFn func(context.Context) (bool, error)
	observeProfileFn    func(context.Context, string) (<-chan stream.Event[*models.UserProfile], error)
	isHandleAvailableFn func(context.Context, string) (bool, error)
}

func (s *userRepoStub) CreateProfile(ctx context.Context, in repository.ProfileInput) (*models.UserProfile, error) {
	return s.createProfileFn(ctx, in)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, in repository.ProfileInput) (*models.UserProfile, error) {
	return s.updateProfileFn(ctx, in)
}
func (s *userRepoStub) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	return s.getProfileFn(ctx, uid)
}
func (s *userRepoStub) GetCurrentProfile(ctx context.Context) (*models.UserProfile, error) {
	return s.getCurrentProfileFn(ctx)
}
func (s *userRepoStub) IsProfileComplete(ctx context.Context) (bool, error) {
	return s.isProfileCompleteFn(ctx)
}
func (s *userRepoStub) ObserveProfile(ctx context.Context, uid string) (<-chan stream.Event[*models.UserProfile], error) {
	return s.observeProfileFn(ctx, uid)
}
func (s *userRepoStub) IsHandleAvailable(ctx context.Context, handle string) (bool, error) {
	return s.isHandleAvailableFn(ctx, handle)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createProfileFn: func(_ context.Context, in repository.ProfileInput) (*models.UserProfile, error) {
			return &models.UserProfile{DisplayName: in.DisplayName, Handle: in.Handle}, nil
		},
		updateProfileFn: func(_ context.Context, in repository.ProfileInput) (*models.UserProfile, error) {
			return &models.UserProfile{DisplayName: in.DisplayName, Handle: in.Handle}, nil
		},
		getProfileFn:        func(context.Context, string) (*models.UserProfile, error) { return &models.UserProfile{}, nil },
		getCurrentProfileFn: func(context.Context) (*models.UserProfile, error) { return &models.UserProfile{}, nil },
		isProfileCompleteFn: func(context.Context) (bool, error) { return true, nil },
		observeProfileFn: func(context.Context, string) (<-chan stream.Event[*models.UserProfile], error) {
			return nil, nil
		},
		isHandleAvailableFn: func(context.Context, string) (bool, error) { return true, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	observePostsFn        func(context.Context) (<-chan stream.Event[[]models.Post], error)
	observeUserPostsFn    func(context.Context, string) (<-chan stream.Event[[]models.Post], error)
	observeTimelineFn     func(context.Context) (<-chan stream.Event[[]models.Post], error)
	observeUserTimelineFn func(context.Context, string) (<-chan stream.Event[[]models.Post], error)
	getPostFn             func(context.Context, string) (*models.Post, error)
	createPostFn          func(context.Context, string, []byte) (*models.Post, error)
	editPostFn            func(context.Context, string, string, []byte) (*models.Post, error)
	deletePostFn          func(context.Context, string) error
	likePostFn            func(context.Context, string) error
	unlikePostFn          func(context.Context, string) error
}

func (s *postRepoStub) ObservePosts(ctx context.Context) (<-chan stream.Event[[]models.Post], error) {
	return s.observePostsFn(ctx)
}
func (s *postRepoStub) ObserveUserPosts(ctx context.Context, uid string) (<-chan stream.Event[[]models.Post], error) {
	return s.observeUserPostsFn(ctx, uid)
}
func (s *postRepoStub) ObserveTimeline(ctx context.Context) (<-chan stream.Event[[]models.Post], error) {
	return s.observeTimelineFn(ctx)
}
func (s *postRepoStub) ObserveUserTimeline(ctx context.Context, uid string) (<-chan stream.Event[[]models.Post], error) {
	return s.observeUserTimelineFn(ctx, uid)
}
func (s *postRepoStub) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.getPostFn(ctx, id)
}
func (s *postRepoStub) CreatePost(ctx context.Context, content string, image []byte) (*models.Post, error) {
	return s.createPostFn(ctx, content, image)
}
func (s *postRepoStub) EditPost(ctx context.Context, postID, content string, image []byte) (*models.Post, error) {
	return s.editPostFn(ctx, postID, content, image)
}
func (s *postRepoStub) DeletePost(ctx context.Context, postID string) error {
	return s.deletePostFn(ctx, postID)
}
func (s *postRepoStub) LikePost(ctx context.Context, postID string) error {
	return s.likePostFn(ctx, postID)
}
func (s *postRepoStub) UnlikePost(ctx context.Context, postID string) error {
	return s.unlikePostFn(ctx, postID)
}

func noopPostRepo() *postRepoStub {
	none := func(context.Context) (<-chan stream.Event[[]models.Post], error) { return nil, nil }
	noneFor := func(context.Context, string) (<-chan stream.Event[[]models.Post], error) { return nil, nil }
	return &postRepoStub{
		observePostsFn:        none,
		observeUserPostsFn:    noneFor,
		observeTimelineFn:     none,
		observeUserTimelineFn: noneFor,
		getPostFn:             func(_ context.Context, id string) (*models.Post, error) { return &models.Post{ID: id}, nil },
		createPostFn: func(_ context.Context, content string, _ []byte) (*models.Post, error) {
			return &models.Post{ID: "p1", Content: content}, nil
		},
		editPostFn: func(_ context.Context, id, content string, _ []byte) (*models.Post, error) {
			return &models.Post{ID: id, Content: content}, nil
		},
		deletePostFn: func(context.Context, string) error { return nil },
		likePostFn:   func(context.Context, string) error { return nil },
		unlikePostFn: func(context.Context, string) error { return nil },
	}
}

// prefsStub is an in-memory prefs.Store.
type prefsStub struct {
	values map[string]bool
	err    error
}

func (p *prefsStub) GetBool(_ context.Context, key string, def bool) (bool, error) {
	if p.err != nil {
		return def, p.err
	}
	v, ok := p.values[key]
	if !ok {
		return def, nil
	}
	return v, nil
}

func (p *prefsStub) SetBool(_ context.Context, key string, value bool) error {
	if p.err != nil {
		return p.err
	}
	if p.values == nil {
		p.values = map[string]bool{}
	}
	p.values[key] = value
	return nil
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	if models.ErrorCode(err) != models.CodeValidation {
		t.Errorf("expected %s, got %v", models.CodeValidation, err)
	}
}
