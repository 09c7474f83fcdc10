package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/media"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	store, err := NewLocalStorage(&config.Config{ImagesDir: filepath.Join(t.TempDir(), "images")}, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "fallback_1.png", []byte("png-bytes"), "image/png"))

	rc, contentType, err := store.Open(ctx, "fallback_1.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", contentType)
}

func TestLocalStorageRejectsPaths(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, "../escape.png", []byte("x"), "image/png"), media.ErrInvalidName)
	_, _, err := store.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, media.ErrInvalidName)
	_, _, err = store.Open(ctx, "missing.png")
	assert.ErrorIs(t, err, media.ErrNotFound)
}

func TestLocalStorageListFiltersAndOrders(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old.jpg", []byte("a"), "image/jpeg"))
	require.NoError(t, store.Save(ctx, "new.png", []byte("bb"), "image/png"))
	require.NoError(t, store.Save(ctx, "notes.txt", []byte("c"), "text/plain"))
	require.NoError(t, store.Save(ctx, "anim.webp", []byte("d"), "image/webp"))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Dir(), "old.jpg"), past, past))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "new.png", entries[0].Name)
	assert.Equal(t, int64(2), entries[0].Size)
	assert.Equal(t, "old.jpg", entries[1].Name)
}

func TestNormalizePrefix(t *testing.T) {
	assert.Equal(t, "", normalizePrefix(""))
	assert.Equal(t, "images/", normalizePrefix("images/"))
	assert.Equal(t, "a/b/", normalizePrefix("/a//b/"))
}
