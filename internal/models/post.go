// Package models contains data structures for the application's domain models.
package models

import "strings"

// Post represents a post on the timeline.
type Post struct {
	ID              string `mapstructure:"id" json:"id"`
	Content         string `mapstructure:"content" json:"content"`
	ImageURL        string `mapstructure:"imageUrl" json:"image_url,omitempty"`
	Timestamp       int64  `mapstructure:"timestamp" json:"timestamp"`
	LikeCount       int64  `mapstructure:"likeCount" json:"like_count"`
	CommentCount    int64  `mapstructure:"commentCount" json:"comment_count"`
	AuthorUID       string `mapstructure:"authorUid" json:"author_uid"`
	AuthorName      string `mapstructure:"authorName" json:"author_name"`
	AuthorHandle    string `mapstructure:"authorHandle" json:"author_handle"`
	AuthorAvatarURL string `mapstructure:"authorAvatarUrl" json:"author_avatar_url,omitempty"`
	// IsLiked is relative to the viewing user and is never written to the post document.
	IsLiked bool `mapstructure:"-" json:"is_liked"`
}

// Document field names for posts.
const (
	PostFieldID              = "id"
	PostFieldContent         = "content"
	PostFieldImageURL        = "imageUrl"
	PostFieldTimestamp       = "timestamp"
	PostFieldLikeCount       = "likeCount"
	PostFieldCommentCount    = "commentCount"
	PostFieldAuthorUID       = "authorUid"
	PostFieldAuthorName      = "authorName"
	PostFieldAuthorHandle    = "authorHandle"
	PostFieldAuthorAvatarURL = "authorAvatarUrl"
)

// HasImage reports whether the post carries an image.
func (p Post) HasImage() bool {
	return strings.TrimSpace(p.ImageURL) != ""
}

// Document returns the stored representation of the post. IsLiked is deliberately absent.
func (p Post) Document() map[string]any {
	return map[string]any{
		PostFieldID:              p.ID,
		PostFieldContent:         p.Content,
		PostFieldImageURL:        p.ImageURL,
		PostFieldTimestamp:       p.Timestamp,
		PostFieldLikeCount:       p.LikeCount,
		PostFieldCommentCount:    p.CommentCount,
		PostFieldAuthorUID:       p.AuthorUID,
		PostFieldAuthorName:      p.AuthorName,
		PostFieldAuthorHandle:    p.AuthorHandle,
		PostFieldAuthorAvatarURL: p.AuthorAvatarURL,
	}
}
