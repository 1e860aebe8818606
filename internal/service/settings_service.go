package service

import (
	"context"

	"murmur/internal/prefs"
)

type SettingsService struct {
	store prefs.Store
}

func NewSettingsService(store prefs.Store) *SettingsService {
	return &SettingsService{store: store}
}

// IsDarkMode defaults to false when the flag was never set.
func (s *SettingsService) IsDarkMode(ctx context.Context) (bool, error) {
	return s.store.GetBool(ctx, prefs.KeyDarkMode, false)
}

func (s *SettingsService) SetDarkMode(ctx context.Context, enabled bool) error {
	return s.store.SetBool(ctx, prefs.KeyDarkMode, enabled)
}
