package storage

import (
	"context"
	"errors"
	"testing"
)

func TestLocalRoundTrip(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	ctx := context.Background()

	key := TextureKey(42)
	if err := store.Put(ctx, key, "image/jpeg", []byte("payload")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, contentType, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Get returned %q, want %q", data, "payload")
	}
	if contentType != "image/jpeg" {
		t.Errorf("Get returned content type %q", contentType)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, _, err := store.Get(ctx, key); !errors.Is(err, ErrNotExist) {
		t.Errorf("Get after delete returned %v, want ErrNotExist", err)
	}
}

func TestLocalDeleteMissingKey(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	if err := store.Delete(context.Background(), AvatarKey(1)); err != nil {
		t.Errorf("Delete of missing key returned %v, want nil", err)
	}
}

func TestLocalPing(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
