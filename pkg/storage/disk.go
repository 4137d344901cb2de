// Package storage stores product images on a local directory or an
// S3-compatible bucket (AWS S3, MinIO, R2, Spaces).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/hayatshop/storefront/config"
)

// ErrInvalidPath is returned for keys that escape the disk root.
var ErrInvalidPath = errors.New("storage: invalid path")

// Disk is the object storage driver interface.
type Disk interface {
	// Put writes r to key with the given content type.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error

	// Exists reports whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes an object. Returns nil if it did not exist.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for key.
	URL(key string) string
}

// New builds the disk named by cfg.Disk ("local" or "s3").
func New(ctx context.Context, cfg config.Storage) (Disk, error) {
	switch cfg.Disk {
	case "", "local":
		return NewLocal(cfg.LocalRoot, cfg.URL)
	case "s3":
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", cfg.Disk)
	}
}

// cleanKey turns key into a relative slash path and rejects traversal.
func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, `\`) {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimLeft(key, "/") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
