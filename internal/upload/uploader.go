// Package upload re-hosts generated images and returns their public URL.
package upload

//go:generate mockgen -source=uploader.go -destination=mocks/mocks.go -package=mocks Uploader

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Uploader stores raw image bytes and returns a durable public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type Config struct {
	Provider        string
	Bucket          string
	CredentialsJSON string
	ImgBBAPIKey     string
	ImgBBEndpoint   string
	Timeout         time.Duration
}

// New builds the uploader named by cfg.Provider ("gcs" or "imgbb").
func New(ctx context.Context, cfg Config) (Uploader, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	switch cfg.Provider {
	case "gcs", "":
		return NewGCSUploader(ctx, cfg.Bucket, cfg.CredentialsJSON, cfg.Timeout)
	case "imgbb":
		return NewImgBBUploader(cfg.ImgBBEndpoint, cfg.ImgBBAPIKey, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown upload provider: %s", cfg.Provider)
	}
}

// ObjectName derives a unique name from the upload time, e.g.
// images/1767225600000000000-1f0c3a9b.jpeg.
func ObjectName(now time.Time, contentType string) string {
	return fmt.Sprintf("images/%d-%s%s", now.UnixNano(), uuid.NewString()[:8], extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpeg"
	}
}
