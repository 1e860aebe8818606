// Package prefs stores small device-local preferences such as the dark-mode flag.
package prefs

import "context"

// Namespace groups every murmur setting.
const Namespace = "murmur.settings"

// KeyDarkMode is the dark-mode flag.
const KeyDarkMode = "dark_mode"

// Store reads and writes boolean preferences under Namespace.
type Store interface {
	GetBool(ctx context.Context, key string, def bool) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}
