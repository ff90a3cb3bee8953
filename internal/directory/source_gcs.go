package directory

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var errInvalidBucket = errors.New("directory: bucket name is required")

// GCSSource reads documents from objects under a prefix in a Cloud Storage bucket.
type GCSSource struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSSource opens a storage client for bucket. Credentials come from the
// environment unless opts say otherwise.
func NewGCSSource(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSSource, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("directory: storage client: %w", err)
	}
	return &GCSSource{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Open implements Source.
func (s *GCSSource) Open(ctx context.Context, name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	object := clean
	if s.prefix != "" {
		object = path.Join(s.prefix, clean)
	}
	r, err := s.client.Bucket(s.bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: gs://%s/%s", ErrNotFound, s.bucket, object)
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readDocument(r, "gs://"+s.bucket+"/"+object)
}

// Close releases the storage client.
func (s *GCSSource) Close() error {
	return s.client.Close()
}
