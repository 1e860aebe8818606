package repository

import (
	"context"

	"murmur/internal/identity"
)

// AuthRepository defines the interface for authentication operations
type AuthRepository interface {
	SignUp(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	IsLoggedIn() bool
	CurrentUserID() (string, bool)
	CurrentUser() (identity.User, bool)
}

// authRepository implements AuthRepository
type authRepository struct {
	identity identity.Service
}

// NewAuthRepository creates a new auth repository
func NewAuthRepository(id identity.Service) AuthRepository {
	return &authRepository{identity: id}
}

func (r *authRepository) SignUp(ctx context.Context, email, password string) error {
	return r.identity.SignUp(ctx, email, password)
}

func (r *authRepository) Login(ctx context.Context, email, password string) error {
	return r.identity.Login(ctx, email, password)
}

func (r *authRepository) Logout(ctx context.Context) error {
	return r.identity.Logout(ctx)
}

func (r *authRepository) IsLoggedIn() bool {
	return r.identity.IsLoggedIn()
}

func (r *authRepository) CurrentUserID() (string, bool) {
	return r.identity.CurrentUserID()
}

func (r *authRepository) CurrentUser() (identity.User, bool) {
	return r.identity.CurrentUser()
}
