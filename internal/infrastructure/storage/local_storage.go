package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/media"
)

// LocalStorage keeps generated images in a flat directory.
type LocalStorage struct {
	basePath string
	log      zerolog.Logger
}

// NewLocalStorage creates the images directory when missing.
func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath := strings.TrimSpace(cfg.ImagesDir)
	if basePath == "" {
		return nil, errors.New("IMAGES_DIR is empty")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	logger.Info().Str("path", basePath).Msg("local storage initialized")
	return &LocalStorage{basePath: basePath, log: logger}, nil
}

// Dir returns the directory holding the images.
func (l *LocalStorage) Dir() string {
	return l.basePath
}

// Save writes data under name, replacing any previous file.
func (l *LocalStorage) Save(ctx context.Context, name string, data []byte, contentType string) error {
	if !media.SafeName(name) {
		return media.ErrInvalidName
	}
	fullPath := filepath.Join(l.basePath, name)

	// Write to a temporary file first so readers never see a partial image.
	tmp, err := os.CreateTemp(l.basePath, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		l.log.Debug().Err(err).Str("name", name).Msg("chmod stored image")
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	l.log.Debug().
		Str("name", name).
		Str("content_type", contentType).
		Int("bytes", len(data)).
		Msg("image saved to local storage")
	return nil
}

// Open returns the stored image and its content type.
func (l *LocalStorage) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if !media.SafeName(name) {
		return nil, "", media.ErrInvalidName
	}
	file, err := os.Open(filepath.Join(l.basePath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", media.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return file, media.ContentTypeFor(name), nil
}

// List returns the listable images, newest first.
func (l *LocalStorage) List(ctx context.Context) ([]media.Entry, error) {
	dirEntries, err := os.ReadDir(l.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []media.Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read images directory: %w", err)
	}

	entries := make([]media.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !media.IsListable(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, media.Entry{Name: de.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sortNewestFirst(entries)
	return entries, nil
}

// Health checks that the directory is writable.
func (l *LocalStorage) Health(ctx context.Context) error {
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}

func sortNewestFirst(entries []media.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].Name > entries[j].Name
		}
		return entries[i].ModTime.After(entries[j].ModTime)
	})
}
