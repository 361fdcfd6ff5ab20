package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DATABASE", "wadtheplanet")
	t.Setenv("DB_USER", "wad")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBType)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 5, cfg.DBConnectionLimit)
	assert.Equal(t, "local", cfg.StorageType)
	assert.Equal(t, "./blobs", cfg.StorageDir)
	assert.Equal(t, 24, cfg.SessionExpirationHours)
	assert.Nil(t, cfg.ReservedNames)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DATABASE", "wadtheplanet")
	t.Setenv("DB_USER", "wad")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_CONNECTION_LIMIT", "20")
	t.Setenv("RESERVED_NAMES", "api, blog ,,shop")
	t.Setenv("SESSION_EXPIRATION_HOURS", "72")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 20, cfg.DBConnectionLimit)
	assert.Equal(t, []string{"api", "blog", "shop"}, cfg.ReservedNames)
	assert.Equal(t, 72, cfg.SessionExpirationHours)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing database", func(t *testing.T) {
		t.Setenv("DB_DATABASE", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Setenv("DB_DATABASE", "wadtheplanet")
		t.Setenv("DB_USER", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("sqlite needs no user", func(t *testing.T) {
		t.Setenv("DB_DATABASE", ":memory:")
		t.Setenv("DB_TYPE", "sqlite")
		t.Setenv("DB_USER", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.DBType)
	})

	t.Run("s3 needs credentials", func(t *testing.T) {
		t.Setenv("DB_DATABASE", "wadtheplanet")
		t.Setenv("DB_USER", "wad")
		t.Setenv("STORAGE_TYPE", "s3")
		t.Setenv("S3_ENDPOINT", "minio:9000")
		_, err := Load()
		assert.Error(t, err)

		t.Setenv("S3_ACCESS_KEY", "minioadmin")
		t.Setenv("S3_SECRET_KEY", "minioadmin")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "wadtheplanet", cfg.S3Bucket)
	})

	t.Run("unknown storage type", func(t *testing.T) {
		t.Setenv("DB_DATABASE", "wadtheplanet")
		t.Setenv("DB_USER", "wad")
		t.Setenv("STORAGE_TYPE", "tape")
		_, err := Load()
		assert.Error(t, err)
	})
}
