// Package storage abstracts the blob store holding planet textures and user
// avatars. Production runs against S3/MinIO; development and tests use a
// local directory behind the same interface.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/wadtheplanet/wadtheplanet/internal/config"
)

// ErrNotExist is returned by Get for a missing key.
var ErrNotExist = errors.New("blob does not exist")

// BlobStore is the texture/avatar object store.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// TextureKey returns the blob key for a planet's texture.
func TextureKey(planetID uint) string {
	return fmt.Sprintf("textures/%d.jpg", planetID)
}

// AvatarKey returns the blob key for a user's avatar.
func AvatarKey(userID uint) string {
	return fmt.Sprintf("avatars/%d.jpg", userID)
}

// New creates the blob store selected by the configuration.
func New(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.StorageType {
	case "local":
		return NewLocal(cfg.StorageDir)
	case "s3":
		return NewMinio(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}
