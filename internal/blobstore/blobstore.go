// Package blobstore stores post images and avatars behind public URLs.
package blobstore

import (
	"context"
	"errors"
	"strings"
)

// Buckets.
const (
	BucketPostImages = "post-images"
	BucketAvatars    = "avatars"
)

// publicSegment sits between the base URL and the bucket in every public URL.
const publicSegment = "/storage/v1/object/public/"

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("blobstore: object not found")

// Handle identifies an uploaded object.
type Handle struct {
	Bucket string
	Path   string
}

// Store is the blob-store contract.
type Store interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (Handle, error)
	PublicURL(bucket, path string) string
	Delete(ctx context.Context, bucket string, paths ...string) error
}

// BuildPublicURL joins base, bucket and path into a public object URL.
func BuildPublicURL(base, bucket, path string) string {
	return strings.TrimRight(base, "/") + publicSegment + bucket + "/" + strings.TrimLeft(path, "/")
}

// PathFromURL derives the storage path of an object from its public URL by
// stripping everything up to and including "<bucket>/". It reports false when
// the URL does not contain that prefix.
func PathFromURL(url, bucket string) (string, bool) {
	marker := bucket + "/"
	i := strings.Index(url, marker)
	if i < 0 {
		return "", false
	}
	path := url[i+len(marker):]
	if path == "" {
		return "", false
	}
	return path, true
}

// PostImagePath is the storage path of a post's image.
func PostImagePath(uid, postID string) string {
	return uid + "/" + postID + ".jpg"
}

// AvatarPath is the storage path of a user's avatar.
func AvatarPath(uid string) string {
	return uid + "/avatar.jpg"
}
