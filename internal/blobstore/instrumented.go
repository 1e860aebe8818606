package blobstore

import (
	"context"

	"murmur/internal/observability"
)

type instrumented struct {
	next Store
}

// Instrument counts upload and delete outcomes of next.
func Instrument(next Store) Store {
	return &instrumented{next: next}
}

func (s *instrumented) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (Handle, error) {
	h, err := s.next.Upload(ctx, bucket, path, data, contentType)
	observability.BlobOperations.WithLabelValues("upload", observability.Outcome(err)).Inc()
	return h, err
}

func (s *instrumented) PublicURL(bucket, path string) string {
	return s.next.PublicURL(bucket, path)
}

func (s *instrumented) Delete(ctx context.Context, bucket string, paths ...string) error {
	err := s.next.Delete(ctx, bucket, paths...)
	observability.BlobOperations.WithLabelValues("delete", observability.Outcome(err)).Inc()
	return err
}
