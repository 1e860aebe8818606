// Package service holds the use cases invoked by view models.
package service

import (
	"context"
	"strings"

	"murmur/internal/models"
	"murmur/internal/repository"
)

type AuthService struct {
	authRepo repository.AuthRepository
}

func NewAuthService(authRepo repository.AuthRepository) *AuthService {
	return &AuthService{authRepo: authRepo}
}

func (s *AuthService) SignUp(ctx context.Context, email, password string) error {
	if err := validateCredentials(email, password); err != nil {
		return err
	}
	return s.authRepo.SignUp(ctx, strings.TrimSpace(email), password)
}

func (s *AuthService) Login(ctx context.Context, email, password string) error {
	if err := validateCredentials(email, password); err != nil {
		return err
	}
	return s.authRepo.Login(ctx, strings.TrimSpace(email), password)
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.authRepo.Logout(ctx)
}

func (s *AuthService) IsLoggedIn() bool {
	return s.authRepo.IsLoggedIn()
}

func (s *AuthService) CurrentUserID() (string, bool) {
	return s.authRepo.CurrentUserID()
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return models.NewValidationError("Email is required")
	}
	if password == "" {
		return models.NewValidationError("Password is required")
	}
	return nil
}
