// Package local stores blobs on the filesystem under <root>/<bucket>/<path>.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"murmur/internal/blobstore"
)

// Store is a filesystem blob store.
type Store struct {
	root    string
	baseURL string
}

var _ blobstore.Store = (*Store)(nil)

// New returns a store rooted at root whose public URLs start with baseURL.
func New(root, baseURL string) *Store {
	return &Store{root: root, baseURL: baseURL}
}

func (s *Store) Upload(_ context.Context, bucket, path string, data []byte, _ string) (blobstore.Handle, error) {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return blobstore.Handle{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return blobstore.Handle{}, err
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return blobstore.Handle{}, fmt.Errorf("write %s/%s: %w", bucket, path, err)
	}
	return blobstore.Handle{Bucket: bucket, Path: path}, nil
}

func (s *Store) PublicURL(bucket, path string) string {
	return blobstore.BuildPublicURL(s.baseURL, bucket, path)
}

// Delete removes each path. Missing objects are ignored.
func (s *Store) Delete(_ context.Context, bucket string, paths ...string) error {
	for _, p := range paths {
		full, err := s.resolve(bucket, p)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %s/%s: %w", bucket, p, err)
		}
	}
	return nil
}

// Read returns an object's bytes.
func (s *Store) Read(bucket, path string) ([]byte, error) {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, blobstore.ErrNotFound
	}
	return data, err
}

func (s *Store) resolve(bucket, path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if path == "" || strings.Contains(bucket, "/") || strings.Contains(bucket, "..") {
		return "", fmt.Errorf("invalid object path %q in bucket %q", path, bucket)
	}
	return filepath.Join(s.root, bucket, clean), nil
}
