// Package media holds the image types shared by the generation services.
package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a stored image does not exist.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidName is returned for names carrying path elements.
	ErrInvalidName = errors.New("invalid image name")
)

// Image is a downloaded image held in memory.
type Image struct {
	Data        []byte
	ContentType string
}

// Entry describes a stored image.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Fetcher downloads images over HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Image, error)
}

// Store persists generated images under a flat file name.
type Store interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
	List(ctx context.Context) ([]Entry, error)
}

var listableExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// IsListable reports whether name is an image the listing endpoint exposes.
func IsListable(name string) bool {
	_, ok := listableExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ExtensionFor returns the file extension used when storing contentType.
func ExtensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

// ContentTypeFor guesses the content type of a stored file from its extension.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// SafeName reports whether name is a plain file name without path elements.
func SafeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
