// Package s3 stores blobs in Amazon S3. Each logical bucket maps to the S3
// bucket <prefix><bucket>.
package s3

import (
	"bytes"
	"context"
	"fmt"

	"murmur/internal/blobstore"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// API is the subset of the S3 client used by Store.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Options configures the S3 store.
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketPrefix    string
	PublicBaseURL   string
}

// Store is an S3-backed blob store.
type Store struct {
	client  API
	prefix  string
	baseURL string
}

var _ blobstore.Store = (*Store)(nil)

// New loads the AWS configuration and builds a store. Static credentials are
// used when both keys are set; otherwise the default provider chain applies.
func New(ctx context.Context, opts Options) (*Store, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), opts.BucketPrefix, opts.PublicBaseURL), nil
}

// NewWithClient builds a store on an existing client.
func NewWithClient(client API, bucketPrefix, publicBaseURL string) *Store {
	return &Store{client: client, prefix: bucketPrefix, baseURL: publicBaseURL}
}

func (s *Store) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (blobstore.Handle, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.prefix + bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return blobstore.Handle{}, fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	return blobstore.Handle{Bucket: bucket, Path: path}, nil
}

func (s *Store) PublicURL(bucket, path string) string {
	return blobstore.BuildPublicURL(s.baseURL, bucket, path)
}

func (s *Store) Delete(ctx context.Context, bucket string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, 0, len(paths))
	for _, p := range paths {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(p)})
	}
	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.prefix + bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", bucket, err)
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("delete %s/%s: %s", bucket, aws.ToString(first.Key), aws.ToString(first.Message))
	}
	return nil
}
