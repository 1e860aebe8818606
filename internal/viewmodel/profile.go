package viewmodel

import (
	"context"
	"strings"

	"murmur/internal/models"
	"murmur/internal/service"
)

// ProfileUseCases is what the profile screens need.
type ProfileUseCases interface {
	CreateProfile(ctx context.Context, in service.ProfileInput) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, in service.ProfileInput) (*models.UserProfile, error)
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	GetCurrentProfile(ctx context.Context) (*models.UserProfile, error)
	IsProfileComplete(ctx context.Context) (bool, error)
}

type ProfileState struct {
	Profile          *models.UserProfile
	Loading          bool
	Saving           bool
	Saved            bool
	Complete         bool
	DisplayNameError string
	HandleError      string
	Error            string
}

type ProfileViewModel struct {
	*Store[ProfileState]

	users  ProfileUseCases
	ctx    context.Context
	cancel context.CancelFunc
}

func NewProfileViewModel(parent context.Context, users ProfileUseCases) *ProfileViewModel {
	ctx, cancel := context.WithCancel(parent)
	return &ProfileViewModel{Store: NewStore(ProfileState{}), users: users, ctx: ctx, cancel: cancel}
}

// Load reads uid's profile, or the current user's when uid is empty.
func (vm *ProfileViewModel) Load(uid string) error {
	vm.Update(func(s ProfileState) ProfileState { s.Loading = true; s.Error = ""; return s })
	var (
		p   *models.UserProfile
		err error
	)
	if uid == "" {
		p, err = vm.users.GetCurrentProfile(vm.ctx)
	} else {
		p, err = vm.users.GetProfile(vm.ctx, uid)
	}
	if err != nil {
		msg := models.UserMessage(err)
		vm.Update(func(s ProfileState) ProfileState { s.Loading = false; s.Error = msg; return s })
		return err
	}
	vm.Update(func(s ProfileState) ProfileState {
		s.Loading = false
		s.Profile = p
		s.Complete = p.IsComplete()
		return s
	})
	return nil
}

// CheckComplete refreshes Complete for the current user.
func (vm *ProfileViewModel) CheckComplete() (bool, error) {
	complete, err := vm.users.IsProfileComplete(vm.ctx)
	if err != nil {
		msg := models.UserMessage(err)
		vm.Update(func(s ProfileState) ProfileState { s.Error = msg; return s })
		return false, err
	}
	vm.Update(func(s ProfileState) ProfileState { s.Complete = complete; return s })
	return complete, nil
}

// Save creates the profile on first setup and updates it afterwards.
func (vm *ProfileViewModel) Save(displayName, handle string, avatar []byte) bool {
	nameErr, handleErr := validateProfileForm(displayName, handle)
	vm.Update(func(s ProfileState) ProfileState {
		s.DisplayNameError = nameErr
		s.HandleError = handleErr
		s.Error = ""
		s.Saved = false
		s.Saving = nameErr == "" && handleErr == ""
		return s
	})
	if nameErr != "" || handleErr != "" {
		return false
	}

	in := service.ProfileInput{DisplayName: displayName, Handle: handle, Avatar: avatar}
	complete, err := vm.users.IsProfileComplete(vm.ctx)
	var p *models.UserProfile
	if err == nil {
		if complete {
			p, err = vm.users.UpdateProfile(vm.ctx, in)
		} else {
			p, err = vm.users.CreateProfile(vm.ctx, in)
		}
	}
	if err != nil {
		msg := models.UserMessage(err)
		taken := models.ErrorCode(err) == models.CodeHandleTaken
		vm.Update(func(s ProfileState) ProfileState {
			s.Saving = false
			if taken {
				s.HandleError = msg
			} else {
				s.Error = msg
			}
			return s
		})
		return false
	}
	vm.Update(func(s ProfileState) ProfileState {
		s.Saving = false
		s.Saved = true
		s.Profile = p
		s.Complete = p.IsComplete()
		return s
	})
	return true
}

func (vm *ProfileViewModel) Close() { vm.cancel() }

func validateProfileForm(displayName, handle string) (nameErr, handleErr string) {
	if strings.TrimSpace(displayName) == "" {
		nameErr = "Display name is required"
	}
	h := models.NormalizeHandle(handle)
	switch {
	case h == "":
		handleErr = "Handle is required"
	case !models.IsValidHandle(h):
		handleErr = "Use 3-20 lowercase letters, numbers, '_' or '.'"
	}
	return nameErr, handleErr
}
