package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local writes files below a directory that the HTTP layer serves statically.
type Local struct {
	dir        string
	publicPath string
}

func NewLocal(dir, publicPath string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure uploads dir: %w", err)
	}
	return &Local{dir: dir, publicPath: strings.TrimSuffix(publicPath, "/")}, nil
}

func (s *Local) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(s.dir, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	// Write to temp, then rename
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	return s.publicPath + "/" + k, nil
}

func (s *Local) URL(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return s.publicPath + "/" + k, nil
}

func (s *Local) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := keyFromURL(s.publicPath, url)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(k))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}
