// Package seed fills a document store with demo accounts, profiles, posts and
// likes. It is meant for development only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"murmur/internal/docstore"
	"murmur/internal/identity"
	"murmur/internal/models"
	"murmur/internal/observability"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// MaxDays spreads post timestamps over this many days back from now.
	MaxDays int
	// LikeChance is the probability, in percent, that a user likes a post.
	LikeChance int
	// Secret signs the throwaway sessions created while registering accounts.
	Secret string
	// RandSeed makes output reproducible when non-zero.
	RandSeed int64
}

// Result summarizes a run.
type Result struct {
	Users []models.UserProfile
	Posts []models.Post
	Likes int
}

// Seeder writes demo data through a docstore.Store.
type Seeder struct {
	store docstore.Store
	opts  Options
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewSeeder creates a seeder. Zero options fall back to small defaults.
func NewSeeder(store docstore.Store, opts Options) *Seeder {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 10
	}
	if opts.NumPosts < 0 {
		opts.NumPosts = 0
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	if opts.LikeChance <= 0 {
		opts.LikeChance = 25
	}
	if opts.Secret == "" {
		opts.Secret = "murmur-seed-secret"
	}
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{store: store, opts: opts, faker: gofakeit.New(seed), now: time.Now}
}

// Run registers accounts, writes their profiles, then posts and likes.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clear: %w", err)
		}
	}

	users, err := s.createUsers(ctx)
	if err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		posts = append(posts, s.BuildPost(author))
	}

	likes := 0
	for i := range posts {
		for u := range users {
			if s.faker.Number(1, 100) > s.opts.LikeChance {
				continue
			}
			users[u].LikedPosts = append(users[u].LikedPosts, posts[i].ID)
			posts[i].LikeCount++
			likes++
		}
	}

	batch := docstore.NewBatch()
	for _, u := range users {
		batch.Set(docstore.CollectionUsers, u.UID, u.Document())
	}
	for _, p := range posts {
		batch.Set(docstore.CollectionPosts, p.ID, p.Document())
	}
	if err := s.store.Commit(ctx, batch); err != nil {
		return nil, fmt.Errorf("write seed data: %w", err)
	}

	observability.GlobalLogger.InfoContext(ctx, "seed complete",
		"users", len(users), "posts", len(posts), "likes", likes)
	return &Result{Users: users, Posts: posts, Likes: likes}, nil
}

func (s *Seeder) createUsers(ctx context.Context) ([]models.UserProfile, error) {
	taken := make(map[string]bool)
	users := make([]models.UserProfile, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		handle := s.uniqueHandle(first, last, taken)
		email := handle + "@murmur.test"

		// Each account gets its own session so the caller's login is untouched.
		accounts := identity.NewLocal(s.store, &identity.MemorySession{}, s.opts.Secret, time.Hour)
		if err := accounts.SignUp(ctx, email, DefaultPassword); err != nil {
			return nil, fmt.Errorf("register %s: %w", email, err)
		}
		u, _ := accounts.CurrentUser()

		profile := s.BuildProfile(u.UID, email, first+" "+last, handle)
		users = append(users, profile)
	}
	return users, nil
}

// BuildProfile constructs a profile without persisting it.
func (s *Seeder) BuildProfile(uid, email, displayName, handle string) models.UserProfile {
	return models.UserProfile{
		UID:         uid,
		DisplayName: displayName,
		Handle:      handle,
		Email:       email,
		AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", uid),
		LikedPosts:  []string{},
		CreatedAt:   s.backdate().Unix(),
	}
}

// BuildPost constructs a post by author without persisting it. About a third
// of posts carry an external placeholder image.
func (s *Seeder) BuildPost(author models.UserProfile) models.Post {
	content := s.faker.Sentence(s.faker.Number(4, 30))
	if len([]rune(content)) > 500 {
		content = string([]rune(content)[:500])
	}
	post := models.Post{
		ID:              s.faker.UUID(),
		Content:         content,
		Timestamp:       s.backdate().Unix(),
		AuthorUID:       author.UID,
		AuthorName:      author.DisplayName,
		AuthorHandle:    author.Handle,
		AuthorAvatarURL: author.AvatarURL,
	}
	if s.faker.Number(1, 3) == 1 {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.faker.UUID())
	}
	return post
}

// ClearAll deletes every post, profile and account.
func (s *Seeder) ClearAll(ctx context.Context) error {
	batch := docstore.NewBatch()
	for _, c := range []string{docstore.CollectionPosts, docstore.CollectionUsers, docstore.CollectionAccounts} {
		docs, err := s.store.Query(ctx, docstore.NewQuery(c))
		if err != nil {
			return err
		}
		for _, d := range docs {
			batch.Delete(c, d.ID)
		}
	}
	return s.store.Commit(ctx, batch)
}

func (s *Seeder) backdate() time.Time {
	back := time.Duration(s.faker.Number(0, s.opts.MaxDays*24*60)) * time.Minute
	return s.now().Add(-back)
}

// uniqueHandle derives a valid handle from a name, adding digits on collision.
func (s *Seeder) uniqueHandle(first, last string, taken map[string]bool) string {
	base := sanitizeHandle(strings.ToLower(first + "." + last))
	if len(base) > 16 {
		base = base[:16]
	}
	for len(base) < 3 {
		base += "_"
	}
	handle := base
	for taken[handle] || !models.IsValidHandle(handle) {
		handle = fmt.Sprintf("%s%d", base, s.faker.Number(100, 999))
	}
	taken[handle] = true
	return handle
}

func sanitizeHandle(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
