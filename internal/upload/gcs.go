package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSUploader writes objects to a Google Cloud Storage bucket that is
// readable at https://storage.googleapis.com/<bucket>/<object>.
type GCSUploader struct {
	client  *storage.Client
	bucket  string
	timeout time.Duration
	now     func() time.Time
}

var _ Uploader = (*GCSUploader)(nil)

// NewGCSUploader authenticates with the service account JSON when given,
// otherwise with application default credentials.
func NewGCSUploader(ctx context.Context, bucket, credentialsJSON string, timeout time.Duration) (*GCSUploader, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	return &GCSUploader{
		client:  client,
		bucket:  bucket,
		timeout: timeout,
		now:     time.Now,
	}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	name := ObjectName(u.now(), contentType)

	w := u.client.Bucket(u.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", name, err)
	}

	return u.PublicURL(name), nil
}

func (u *GCSUploader) PublicURL(name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, name)
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}
