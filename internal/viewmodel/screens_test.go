package viewmodel

import (
	"context"
	"errors"
	"testing"

	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authStub is a stub for AuthUseCases and ProfileChecker.
type authStub struct {
	loggedIn   bool
	signUpFn   func(context.Context, string, string) error
	loginFn    func(context.Context, string, string) error
	logoutFn   func(context.Context) error
	completeFn func(context.Context) (bool, error)
}

func noopAuth() *authStub {
	return &authStub{
		signUpFn:   func(context.Context, string, string) error { return nil },
		loginFn:    func(context.Context, string, string) error { return nil },
		logoutFn:   func(context.Context) error { return nil },
		completeFn: func(context.Context) (bool, error) { return true, nil },
	}
}

func (a *authStub) SignUp(ctx context.Context, e, p string) error { return a.signUpFn(ctx, e, p) }
func (a *authStub) Login(ctx context.Context, e, p string) error  { return a.loginFn(ctx, e, p) }
func (a *authStub) Logout(ctx context.Context) error              { return a.logoutFn(ctx) }
func (a *authStub) IsLoggedIn() bool                              { return a.loggedIn }
func (a *authStub) IsProfileComplete(ctx context.Context) (bool, error) {
	return a.completeFn(ctx)
}

func TestAuthViewModel_FormValidation(t *testing.T) {
	auth := noopAuth()
	called := false
	auth.signUpFn = func(context.Context, string, string) error { called = true; return nil }
	vm := NewAuthViewModel(context.Background(), auth, auth)
	defer vm.Close()

	assert.False(t, vm.SignUp("not-an-email", "123"))
	st := vm.State()
	assert.Equal(t, "Enter a valid email address", st.EmailError)
	assert.Equal(t, "Password must be at least 6 characters", st.PasswordError)
	assert.False(t, st.Submitting)
	assert.False(t, called)

	assert.False(t, vm.Login("", ""))
	st = vm.State()
	assert.Equal(t, "Email is required", st.EmailError)
	assert.Equal(t, "Password is required", st.PasswordError)
}

func TestAuthViewModel_AuthErrorBecomesDialogText(t *testing.T) {
	auth := noopAuth()
	auth.loginFn = func(context.Context, string, string) error {
		return models.NewAuthError(models.CodeAuthWrongPassword)
	}
	vm := NewAuthViewModel(context.Background(), auth, auth)
	defer vm.Close()

	assert.False(t, vm.Login("ana@example.com", "wrong1"))
	st := vm.State()
	assert.Equal(t, "Incorrect password. Please try again.", st.Error)
	assert.False(t, st.LoggedIn)
	assert.False(t, st.Submitting)

	vm.DismissError()
	assert.Empty(t, vm.State().Error)
}

func TestAuthViewModel_Destinations(t *testing.T) {
	auth := noopAuth()
	vm := NewAuthViewModel(context.Background(), auth, auth)
	defer vm.Close()

	require.True(t, vm.Login("ana@example.com", "secret1"))
	assert.Equal(t, DestinationTimeline, vm.State().Destination)
	assert.True(t, vm.State().LoggedIn)

	auth.completeFn = func(context.Context) (bool, error) { return false, nil }
	require.True(t, vm.Login("ana@example.com", "secret1"))
	assert.Equal(t, DestinationProfileSetup, vm.State().Destination)

	require.True(t, vm.SignUp("new@example.com", "secret1"))
	assert.Equal(t, DestinationProfileSetup, vm.State().Destination)

	require.NoError(t, vm.Logout())
	assert.Equal(t, DestinationLogin, vm.State().Destination)
	assert.False(t, vm.State().LoggedIn)
}

// profileStub is a stub for ProfileUseCases.
type profileStub struct {
	createFn     func(context.Context, service.ProfileInput) (*models.UserProfile, error)
	updateFn     func(context.Context, service.ProfileInput) (*models.UserProfile, error)
	getFn        func(context.Context, string) (*models.UserProfile, error)
	getCurrentFn func(context.Context) (*models.UserProfile, error)
	completeFn   func(context.Context) (bool, error)
}

func (p *profileStub) CreateProfile(ctx context.Context, in service.ProfileInput) (*models.UserProfile, error) {
	return p.createFn(ctx, in)
}
func (p *profileStub) UpdateProfile(ctx context.Context, in service.ProfileInput) (*models.UserProfile, error) {
	return p.updateFn(ctx, in)
}
func (p *profileStub) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	return p.getFn(ctx, uid)
}
func (p *profileStub) GetCurrentProfile(ctx context.Context) (*models.UserProfile, error) {
	return p.getCurrentFn(ctx)
}
func (p *profileStub) IsProfileComplete(ctx context.Context) (bool, error) { return p.completeFn(ctx) }

func echoProfile(_ context.Context, in service.ProfileInput) (*models.UserProfile, error) {
	return &models.UserProfile{DisplayName: in.DisplayName, Handle: models.NormalizeHandle(in.Handle)}, nil
}

func noopProfiles() *profileStub {
	return &profileStub{
		createFn:     echoProfile,
		updateFn:     echoProfile,
		getFn:        func(_ context.Context, uid string) (*models.UserProfile, error) { return &models.UserProfile{UID: uid}, nil },
		getCurrentFn: func(context.Context) (*models.UserProfile, error) { return nil, models.ErrNoUser },
		completeFn:   func(context.Context) (bool, error) { return false, nil },
	}
}

func TestProfileViewModel_SaveCreatesThenUpdates(t *testing.T) {
	users := noopProfiles()
	created, updated := 0, 0
	users.createFn = func(ctx context.Context, in service.ProfileInput) (*models.UserProfile, error) {
		created++
		return echoProfile(ctx, in)
	}
	users.updateFn = func(ctx context.Context, in service.ProfileInput) (*models.UserProfile, error) {
		updated++
		return echoProfile(ctx, in)
	}
	vm := NewProfileViewModel(context.Background(), users)
	defer vm.Close()

	require.True(t, vm.Save("Ana", "@Ana", nil))
	st := vm.State()
	assert.True(t, st.Saved)
	assert.True(t, st.Complete)
	assert.Equal(t, "ana", st.Profile.Handle)

	users.completeFn = func(context.Context) (bool, error) { return true, nil }
	require.True(t, vm.Save("Ana B", "ana", nil))
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)
}

func TestProfileViewModel_Validation(t *testing.T) {
	vm := NewProfileViewModel(context.Background(), noopProfiles())
	defer vm.Close()

	assert.False(t, vm.Save(" ", "a-b", nil))
	st := vm.State()
	assert.Equal(t, "Display name is required", st.DisplayNameError)
	assert.Equal(t, "Use 3-20 lowercase letters, numbers, '_' or '.'", st.HandleError)
	assert.False(t, st.Saving)

	assert.False(t, vm.Save("Ana", "", nil))
	assert.Equal(t, "Handle is required", vm.State().HandleError)
}

func TestProfileViewModel_HandleTakenShowsInline(t *testing.T) {
	users := noopProfiles()
	users.createFn = func(context.Context, service.ProfileInput) (*models.UserProfile, error) {
		return nil, &models.AppError{Code: models.CodeHandleTaken, Message: "@ana is already taken"}
	}
	vm := NewProfileViewModel(context.Background(), users)
	defer vm.Close()

	assert.False(t, vm.Save("Ana", "ana", nil))
	st := vm.State()
	assert.Equal(t, "@ana is already taken", st.HandleError)
	assert.Empty(t, st.Error)
}

func TestProfileViewModel_Load(t *testing.T) {
	users := noopProfiles()
	vm := NewProfileViewModel(context.Background(), users)
	defer vm.Close()

	assert.ErrorIs(t, vm.Load(""), models.ErrNoUser)
	assert.Equal(t, "No user logged in", vm.State().Error)

	require.NoError(t, vm.Load("u2"))
	assert.Equal(t, "u2", vm.State().Profile.UID)
	assert.False(t, vm.State().Complete)

	complete, err := vm.CheckComplete()
	require.NoError(t, err)
	assert.False(t, complete)
}

// composeStub is a stub for ComposeUseCases.
type composeStub struct {
	createFn func(context.Context, service.PostInput) (*models.Post, error)
	editFn   func(context.Context, string, service.PostInput) (*models.Post, error)
}

func (c *composeStub) CreatePost(ctx context.Context, in service.PostInput) (*models.Post, error) {
	return c.createFn(ctx, in)
}
func (c *composeStub) EditPost(ctx context.Context, id string, in service.PostInput) (*models.Post, error) {
	return c.editFn(ctx, id, in)
}

func TestComposeViewModel_Draft(t *testing.T) {
	vm := NewComposeViewModel(context.Background(), &composeStub{})
	defer vm.Close()

	assert.Equal(t, service.MaxContentLen, vm.State().Remaining)
	vm.SetDraft("hello", false)
	assert.Equal(t, service.MaxContentLen-5, vm.State().Remaining)
	assert.True(t, vm.State().CanSubmit)

	vm.SetDraft("", true)
	assert.True(t, vm.State().CanSubmit, "image-only")

	vm.SetDraft("  ", false)
	assert.False(t, vm.State().CanSubmit)
}

func TestComposeViewModel_SubmitAndError(t *testing.T) {
	posts := &composeStub{
		createFn: func(_ context.Context, in service.PostInput) (*models.Post, error) {
			return &models.Post{ID: "p1", Content: in.Content}, nil
		},
		editFn: func(context.Context, string, service.PostInput) (*models.Post, error) {
			return nil, models.NewUnauthorizedError("You can only edit your own posts")
		},
	}
	vm := NewComposeViewModel(context.Background(), posts)
	defer vm.Close()

	post, err := vm.Submit("hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, post, vm.State().Posted)
	assert.False(t, vm.State().Submitting)

	_, err = vm.SubmitEdit("p9", "x", nil)
	assert.Error(t, err)
	assert.Equal(t, "You can only edit your own posts", vm.State().Error)
	assert.False(t, vm.State().Submitting)
}

type settingsStub struct {
	dark   bool
	getErr error
	setErr error
}

func (s *settingsStub) IsDarkMode(context.Context) (bool, error) { return s.dark, s.getErr }
func (s *settingsStub) SetDarkMode(_ context.Context, on bool) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.dark = on
	return nil
}

func TestSettingsViewModel(t *testing.T) {
	store := &settingsStub{dark: true}
	vm := NewSettingsViewModel(context.Background(), store)
	defer vm.Close()
	assert.True(t, vm.State().DarkMode)

	require.NoError(t, vm.SetDarkMode(false))
	assert.False(t, vm.State().DarkMode)
	assert.False(t, store.dark)

	store.setErr = errors.New("disk full")
	assert.Error(t, vm.SetDarkMode(true))
	assert.False(t, vm.State().DarkMode)
	assert.Equal(t, "disk full", vm.State().Error)
}

func TestSettingsViewModel_ReadFailureDefaultsToLight(t *testing.T) {
	vm := NewSettingsViewModel(context.Background(), &settingsStub{dark: true, getErr: errors.New("corrupt prefs")})
	defer vm.Close()
	assert.False(t, vm.State().DarkMode)
	assert.Equal(t, "corrupt prefs", vm.State().Error)
}
