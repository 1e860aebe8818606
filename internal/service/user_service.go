package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/stream"
)

const maxDisplayNameLen = 50

type UserService struct {
	userRepo repository.UserRepository
}

// ProfileInput is the profile setup/edit form.
type ProfileInput struct {
	DisplayName string
	Handle      string
	Avatar      []byte
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) CreateProfile(ctx context.Context, in ProfileInput) (*models.UserProfile, error) {
	if err := validateProfile(in); err != nil {
		return nil, err
	}
	return s.userRepo.CreateProfile(ctx, repository.ProfileInput(in))
}

func (s *UserService) UpdateProfile(ctx context.Context, in ProfileInput) (*models.UserProfile, error) {
	if err := validateProfile(in); err != nil {
		return nil, err
	}
	return s.userRepo.UpdateProfile(ctx, repository.ProfileInput(in))
}

func (s *UserService) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, models.NewValidationError("User id is required")
	}
	return s.userRepo.GetProfile(ctx, uid)
}

func (s *UserService) GetCurrentProfile(ctx context.Context) (*models.UserProfile, error) {
	return s.userRepo.GetCurrentProfile(ctx)
}

func (s *UserService) IsProfileComplete(ctx context.Context) (bool, error) {
	return s.userRepo.IsProfileComplete(ctx)
}

func (s *UserService) ObserveProfile(ctx context.Context, uid string) (<-chan stream.Event[*models.UserProfile], error) {
	return s.userRepo.ObserveProfile(ctx, uid)
}

func (s *UserService) IsHandleAvailable(ctx context.Context, handle string) (bool, error) {
	h := models.NormalizeHandle(handle)
	if !models.IsValidHandle(h) {
		return false, models.NewValidationError("Handle must be 3-20 characters: letters, numbers, '_' or '.'")
	}
	return s.userRepo.IsHandleAvailable(ctx, h)
}

func validateProfile(in ProfileInput) error {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return models.NewValidationError("Display name is required")
	}
	if utf8.RuneCountInString(name) > maxDisplayNameLen {
		return models.NewValidationError("Display name too long (max 50 characters)")
	}
	if !models.IsValidHandle(models.NormalizeHandle(in.Handle)) {
		return models.NewValidationError("Handle must be 3-20 characters: letters, numbers, '_' or '.'")
	}
	return nil
}
