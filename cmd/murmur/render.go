package main

import (
	"fmt"
	"io"
	"time"

	"murmur/internal/models"
)

// palette colors output; light mode prints plain text.
type palette struct {
	accent, dim, liked, reset string
}

func (a *app) palette() palette {
	if !a.dark {
		return palette{}
	}
	return palette{accent: "\033[96m", dim: "\033[90m", liked: "\033[95m", reset: "\033[0m"}
}

func renderPost(w io.Writer, p models.Post, pal palette) {
	author := p.AuthorName
	if author == "" {
		author = p.AuthorUID
	}
	fmt.Fprintf(w, "%s@%s%s %s · %s%s%s\n",
		pal.accent, p.AuthorHandle, pal.reset, author,
		pal.dim, time.Unix(p.Timestamp, 0).Format("2006-01-02 15:04"), pal.reset)
	if p.Content != "" {
		fmt.Fprintln(w, p.Content)
	}
	if p.HasImage() {
		fmt.Fprintf(w, "%s[image] %s%s\n", pal.dim, p.ImageURL, pal.reset)
	}
	heart := "♡"
	if p.IsLiked {
		heart = pal.liked + "♥" + pal.reset
	}
	fmt.Fprintf(w, "%s %d  %sid:%s%s\n\n", heart, p.LikeCount, pal.dim, p.ID, pal.reset)
}

func renderTimeline(w io.Writer, posts []models.Post, pal palette) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts yet.")
		return
	}
	for _, p := range posts {
		renderPost(w, p, pal)
	}
}

func renderProfile(w io.Writer, p *models.UserProfile, pal palette) {
	fmt.Fprintf(w, "%s%s%s (@%s)\n", pal.accent, p.DisplayName, pal.reset, p.Handle)
	if p.Email != "" {
		fmt.Fprintf(w, "email:  %s\n", p.Email)
	}
	if p.AvatarURL != "" {
		fmt.Fprintf(w, "avatar: %s\n", p.AvatarURL)
	}
	fmt.Fprintf(w, "joined: %s\n", time.Unix(p.CreatedAt, 0).Format("2006-01-02"))
	fmt.Fprintf(w, "likes:  %d\n", len(p.LikedPosts))
	if !p.IsComplete() {
		fmt.Fprintln(w, "profile incomplete: run `murmur profile setup`")
	}
}
