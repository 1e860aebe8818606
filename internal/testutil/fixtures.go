// Package testutil provides shared test doubles and fixtures.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"

	"murmur/internal/docstore"
	"murmur/internal/identity"
	"murmur/internal/models"
)

// FakeIdentity is an identity.Service whose current user is set directly.
type FakeIdentity struct {
	mu   sync.RWMutex
	user *identity.User

	SignUpFn func(ctx context.Context, email, password string) error
	LoginFn  func(ctx context.Context, email, password string) error
}

var _ identity.Service = (*FakeIdentity)(nil)

// NewFakeIdentity returns an identity with uid logged in, or nobody when uid is empty.
func NewFakeIdentity(uid string) *FakeIdentity {
	f := &FakeIdentity{}
	if uid != "" {
		f.SetUser(uid, uid+"@example.com")
	}
	return f
}

// SetUser logs uid in.
func (f *FakeIdentity) SetUser(uid, email string) {
	f.mu.Lock()
	f.user = &identity.User{UID: uid, Email: email}
	f.mu.Unlock()
}

// ClearUser logs out.
func (f *FakeIdentity) ClearUser() {
	f.mu.Lock()
	f.user = nil
	f.mu.Unlock()
}

func (f *FakeIdentity) CurrentUser() (identity.User, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.user == nil {
		return identity.User{}, false
	}
	return *f.user, true
}

func (f *FakeIdentity) CurrentUserID() (string, bool) {
	u, ok := f.CurrentUser()
	return u.UID, ok
}

func (f *FakeIdentity) IsLoggedIn() bool {
	_, ok := f.CurrentUser()
	return ok
}

func (f *FakeIdentity) SignUp(ctx context.Context, email, password string) error {
	if f.SignUpFn != nil {
		return f.SignUpFn(ctx, email, password)
	}
	f.SetUser("uid-"+email, email)
	return nil
}

func (f *FakeIdentity) Login(ctx context.Context, email, password string) error {
	if f.LoginFn != nil {
		return f.LoginFn(ctx, email, password)
	}
	f.SetUser("uid-"+email, email)
	return nil
}

func (f *FakeIdentity) Logout(context.Context) error {
	f.ClearUser()
	return nil
}

// PNG encodes a w×h test image.
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// SeedProfile writes profile to the users collection.
func SeedProfile(ctx context.Context, store docstore.Store, profile models.UserProfile) error {
	return store.Set(ctx, docstore.CollectionUsers, profile.UID, profile.Document())
}

// SeedPost writes post to the posts collection.
func SeedPost(ctx context.Context, store docstore.Store, post models.Post) error {
	return store.Set(ctx, docstore.CollectionPosts, post.ID, post.Document())
}

// WriteCounter wraps a docstore.Store and counts mutating calls.
type WriteCounter struct {
	docstore.Store

	mu     sync.Mutex
	writes int
}

// CountWrites wraps store.
func CountWrites(store docstore.Store) *WriteCounter {
	return &WriteCounter{Store: store}
}

// Writes returns the number of Set, Update, Delete and Commit calls.
func (w *WriteCounter) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

func (w *WriteCounter) bump() {
	w.mu.Lock()
	w.writes++
	w.mu.Unlock()
}

func (w *WriteCounter) Set(ctx context.Context, collection, id string, data map[string]any) error {
	w.bump()
	return w.Store.Set(ctx, collection, id, data)
}

func (w *WriteCounter) Update(ctx context.Context, collection, id string, updates ...docstore.Update) error {
	w.bump()
	return w.Store.Update(ctx, collection, id, updates...)
}

func (w *WriteCounter) Delete(ctx context.Context, collection, id string) error {
	w.bump()
	return w.Store.Delete(ctx, collection, id)
}

func (w *WriteCounter) Commit(ctx context.Context, b *docstore.Batch) error {
	w.bump()
	return w.Store.Commit(ctx, b)
}
