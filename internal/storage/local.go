package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local stores blobs as files under a root directory. Keys map to relative
// paths; everything stored here is a normalized JPEG.
type Local struct {
	root string
}

// NewLocal creates a local blob store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Local{root: dir}, nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

// Put writes the blob, creating intermediate directories.
func (l *Local) Put(_ context.Context, key, _ string, data []byte) error {
	p := l.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Get reads the blob.
func (l *Local) Get(_ context.Context, key string) ([]byte, string, error) {
	data, err := os.ReadFile(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotExist
		}
		return nil, "", err
	}
	return data, "image/jpeg", nil
}

// Delete removes the blob. Deleting a missing key is not an error.
func (l *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(l.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Ping verifies the root directory is still accessible.
func (l *Local) Ping(_ context.Context) error {
	_, err := os.Stat(l.root)
	return err
}
