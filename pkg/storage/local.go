package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// localDisk stores files under root and serves them from baseURL.
type localDisk struct {
	root    string
	baseURL string
}

func NewLocal(root, baseURL string) (Disk, error) {
	if root == "" {
		root = "storage"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage/local: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage/local: mkdir %s: %w", abs, err)
	}
	return &localDisk{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *localDisk) full(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(k)), nil
}

// Put writes to a temp file first so readers never see a partial image.
func (d *localDisk) Put(_ context.Context, key string, r io.Reader, _ string) error {
	p, err := d.full(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage/local: put %s: %w", key, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("storage/local: put %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage/local: put %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("storage/local: put %s: %w", key, err)
	}
	return nil
}

func (d *localDisk) Exists(_ context.Context, key string) (bool, error) {
	p, err := d.full(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("storage/local: stat %s: %w", key, err)
	}
}

func (d *localDisk) Delete(_ context.Context, key string) error {
	p, err := d.full(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage/local: delete %s: %w", key, err)
	}
	return nil
}

func (d *localDisk) URL(key string) string {
	return d.baseURL + "/" + strings.TrimLeft(key, "/")
}

// Root is the absolute directory served under the public storage URL.
func (d *localDisk) Root() string { return d.root }
