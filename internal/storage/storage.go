package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/scdri/backend/internal/config"
)

var ErrOutsideStore = errors.New("url does not belong to this store")

// Storage keeps uploaded images and generated documents. Save returns the
// public URL that is persisted on reports and notifications; Delete accepts
// that same URL.
type Storage interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
	// URL returns the address Save would return for key, without I/O.
	URL(key string) (string, error)
}

// New picks the backend named by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocal(cfg.UploadsDir, cfg.UploadsPublicPath)
	case "s3":
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

// cleanKey rejects empty keys and anything that climbs out of the store root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.TrimSpace(key))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return k, nil
}

// keyFromURL strips base from url and returns the object key.
func keyFromURL(base, url string) (string, error) {
	base = strings.TrimSuffix(base, "/") + "/"
	if !strings.HasPrefix(url, base) {
		return "", ErrOutsideStore
	}
	return cleanKey(strings.TrimPrefix(url, base))
}
