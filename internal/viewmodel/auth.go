package viewmodel

import (
	"context"
	"strings"

	"murmur/internal/models"
)

const minPasswordLen = 6

// AuthUseCases is what the login and signup screens need.
type AuthUseCases interface {
	SignUp(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	IsLoggedIn() bool
}

// ProfileChecker decides where to go after authentication.
type ProfileChecker interface {
	IsProfileComplete(ctx context.Context) (bool, error)
}

// Destination is the screen to show after an auth action.
type Destination string

const (
	DestinationNone         Destination = ""
	DestinationLogin        Destination = "login"
	DestinationProfileSetup Destination = "profile_setup"
	DestinationTimeline     Destination = "timeline"
)

// AuthState is the login/signup form. Error is dialog text for a failed
// attempt; the field errors are inline.
type AuthState struct {
	Submitting    bool
	EmailError    string
	PasswordError string
	Error         string
	LoggedIn      bool
	Destination   Destination
}

type AuthViewModel struct {
	*Store[AuthState]

	auth     AuthUseCases
	profiles ProfileChecker
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewAuthViewModel(parent context.Context, auth AuthUseCases, profiles ProfileChecker) *AuthViewModel {
	ctx, cancel := context.WithCancel(parent)
	return &AuthViewModel{
		Store:    NewStore(AuthState{LoggedIn: auth.IsLoggedIn()}),
		auth:     auth,
		profiles: profiles,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (vm *AuthViewModel) Login(email, password string) bool {
	return vm.submit(email, password, false, vm.auth.Login)
}

func (vm *AuthViewModel) SignUp(email, password string) bool {
	return vm.submit(email, password, true, vm.auth.SignUp)
}

func (vm *AuthViewModel) Logout() error {
	if err := vm.auth.Logout(vm.ctx); err != nil {
		msg := models.UserMessage(err)
		vm.Update(func(s AuthState) AuthState { s.Error = msg; return s })
		return err
	}
	vm.Update(func(AuthState) AuthState { return AuthState{Destination: DestinationLogin} })
	return nil
}

func (vm *AuthViewModel) DismissError() {
	vm.Update(func(s AuthState) AuthState { s.Error = ""; return s })
}

func (vm *AuthViewModel) Close() { vm.cancel() }

func (vm *AuthViewModel) submit(email, password string, signUp bool, action func(context.Context, string, string) error) bool {
	emailErr, passErr := validateAuthForm(email, password, signUp)
	vm.Update(func(s AuthState) AuthState {
		s.EmailError = emailErr
		s.PasswordError = passErr
		s.Error = ""
		s.Submitting = emailErr == "" && passErr == ""
		return s
	})
	if emailErr != "" || passErr != "" {
		return false
	}

	if err := action(vm.ctx, strings.TrimSpace(email), password); err != nil {
		msg := models.UserMessage(err)
		vm.Update(func(s AuthState) AuthState {
			s.Submitting = false
			s.Error = msg
			return s
		})
		return false
	}

	dest := DestinationTimeline
	if signUp {
		dest = DestinationProfileSetup
	} else if vm.profiles != nil {
		complete, err := vm.profiles.IsProfileComplete(vm.ctx)
		if err == nil && !complete {
			dest = DestinationProfileSetup
		}
	}
	vm.Update(func(s AuthState) AuthState {
		s.Submitting = false
		s.LoggedIn = true
		s.Destination = dest
		return s
	})
	return true
}

func validateAuthForm(email, password string, signUp bool) (emailErr, passErr string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		emailErr = "Email is required"
	case !looksLikeEmail(email):
		emailErr = "Enter a valid email address"
	}
	switch {
	case password == "":
		passErr = "Password is required"
	case signUp && len(password) < minPasswordLen:
		passErr = "Password must be at least 6 characters"
	}
	return emailErr, passErr
}

func looksLikeEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".") && !strings.HasSuffix(email, ".")
}
