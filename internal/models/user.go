package models

import (
	"regexp"
	"strings"
)

// UserProfile is the profile document of a user, including the set of posts they liked.
type UserProfile struct {
	UID         string   `mapstructure:"uid" json:"uid"`
	DisplayName string   `mapstructure:"displayName" json:"display_name"`
	Handle      string   `mapstructure:"handle" json:"handle"`
	Email       string   `mapstructure:"email" json:"email"`
	AvatarURL   string   `mapstructure:"avatarUrl" json:"avatar_url,omitempty"`
	LikedPosts  []string `mapstructure:"likedPosts" json:"liked_posts"`
	CreatedAt   int64    `mapstructure:"createdAt" json:"created_at"`
}

// Document field names for user profiles.
const (
	UserFieldUID         = "uid"
	UserFieldDisplayName = "displayName"
	UserFieldHandle      = "handle"
	UserFieldEmail       = "email"
	UserFieldAvatarURL   = "avatarUrl"
	UserFieldLikedPosts  = "likedPosts"
	UserFieldCreatedAt   = "createdAt"
)

// IsComplete reports whether the profile has been set up.
func (u UserProfile) IsComplete() bool {
	return strings.TrimSpace(u.DisplayName) != ""
}

// Document returns the stored representation of the profile.
func (u UserProfile) Document() map[string]any {
	liked := u.LikedPosts
	if liked == nil {
		liked = []string{}
	}
	return map[string]any{
		UserFieldUID:         u.UID,
		UserFieldDisplayName: u.DisplayName,
		UserFieldHandle:      u.Handle,
		UserFieldEmail:       u.Email,
		UserFieldAvatarURL:   u.AvatarURL,
		UserFieldLikedPosts:  liked,
		UserFieldCreatedAt:   u.CreatedAt,
	}
}

// LikedSet returns the liked post ids as a set.
func (u UserProfile) LikedSet() LikedSet {
	return NewLikedSet(u.LikedPosts...)
}

// NormalizeHandle lowercases and trims a handle, dropping a leading '@'.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

var handlePattern = regexp.MustCompile(`^[a-z0-9_.]{3,20}$`)

// IsValidHandle reports whether a normalized handle is 3-20 characters of
// lowercase letters, digits, '_' or '.'.
func IsValidHandle(handle string) bool {
	return handlePattern.MatchString(handle)
}

// LikedSet is the set of post ids liked by one user.
type LikedSet map[string]struct{}

// NewLikedSet builds a set from ids.
func NewLikedSet(ids ...string) LikedSet {
	s := make(LikedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set. A nil set contains nothing.
func (s LikedSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}
