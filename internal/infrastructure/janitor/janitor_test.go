package janitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/midjourney-api/internal/config"
)

func TestSweepRemovesStaleUploads(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "upload_1_old.png")
	fresh := filepath.Join(dir, "upload_2_new.png")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("y"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	j := New(&config.Config{UploadsDir: dir, UploadRetention: time.Hour, JanitorSchedule: "* * * * *"}, zerolog.Nop())
	removed, err := j.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.DirExists(t, filepath.Join(dir, "nested"))
}

func TestSweepMissingDirectory(t *testing.T) {
	j := New(&config.Config{UploadsDir: filepath.Join(t.TempDir(), "missing"), UploadRetention: time.Hour}, zerolog.Nop())
	removed, err := j.Sweep()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRunRejectsBadSchedule(t *testing.T) {
	j := New(&config.Config{UploadsDir: t.TempDir(), UploadRetention: time.Hour, JanitorSchedule: "not a schedule"}, zerolog.Nop())
	assert.Error(t, j.Run(context.Background()))
}

func TestRunStopsWithContext(t *testing.T) {
	j := New(&config.Config{UploadsDir: t.TempDir(), UploadRetention: time.Hour, JanitorSchedule: "*/5 * * * *"}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
