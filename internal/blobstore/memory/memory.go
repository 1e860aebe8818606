// Package memory is an in-process blob store for tests.
package memory

import (
	"context"
	"sync"

	"murmur/internal/blobstore"
)

// Store keeps objects in a map. UploadErr and DeleteErr, when set, are
// returned by the corresponding calls.
type Store struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
	deleted []string

	UploadErr error
	DeleteErr error
}

var _ blobstore.Store = (*Store)(nil)

// New returns an empty store.
func New(baseURL string) *Store {
	return &Store{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (s *Store) Upload(_ context.Context, bucket, path string, data []byte, _ string) (blobstore.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		return blobstore.Handle{}, s.UploadErr
	}
	s.objects[bucket+"/"+path] = append([]byte(nil), data...)
	return blobstore.Handle{Bucket: bucket, Path: path}, nil
}

func (s *Store) PublicURL(bucket, path string) string {
	return blobstore.BuildPublicURL(s.baseURL, bucket, path)
}

func (s *Store) Delete(_ context.Context, bucket string, paths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	for _, p := range paths {
		delete(s.objects, bucket+"/"+p)
		s.deleted = append(s.deleted, bucket+"/"+p)
	}
	return nil
}

// Has reports whether an object exists.
func (s *Store) Has(bucket, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[bucket+"/"+path]
	return ok
}

// Deleted returns every "<bucket>/<path>" passed to Delete.
func (s *Store) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}
