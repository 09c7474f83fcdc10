package requests

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/infrastructure/metrics"
)

// ImagesField is the multipart field carrying reference images.
const ImagesField = "images"

// UploadError is a client error while reading reference uploads.
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string { return e.Message }

// UploadLimits bounds the reference uploads of one request.
type UploadLimits struct {
	Dir      string
	MaxFiles int
	MaxBytes int64
}

// ReceivedImages returns how many files the request carried in ImagesField.
func ReceivedImages(c *gin.Context) int {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return 0
	}
	return len(form.File[ImagesField])
}

// SaveReferenceUploads stores the uploaded images under limits.Dir. Nothing
// is left on disk when an error is returned.
func SaveReferenceUploads(c *gin.Context, limits UploadLimits) ([]generation.ReferenceFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, &UploadError{Message: "upload too large"}
		}
		return nil, &UploadError{Message: "at least one image is required"}
	}
	headers := form.File[ImagesField]
	if len(headers) > limits.MaxFiles {
		return nil, &UploadError{Message: fmt.Sprintf("at most %d images are allowed", limits.MaxFiles)}
	}
	if err := os.MkdirAll(limits.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	files := make([]generation.ReferenceFile, 0, len(headers))
	for _, header := range headers {
		file, err := saveUpload(header, limits)
		if err != nil {
			RemoveUploads(files)
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func saveUpload(header *multipart.FileHeader, limits UploadLimits) (generation.ReferenceFile, error) {
	if header.Size > limits.MaxBytes {
		return generation.ReferenceFile{}, &UploadError{Message: fmt.Sprintf("image %s exceeds %d bytes", header.Filename, limits.MaxBytes)}
	}
	src, err := header.Open()
	if err != nil {
		return generation.ReferenceFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, limits.MaxBytes+1))
	if err != nil {
		return generation.ReferenceFile{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limits.MaxBytes {
		return generation.ReferenceFile{}, &UploadError{Message: fmt.Sprintf("image %s exceeds %d bytes", header.Filename, limits.MaxBytes)}
	}
	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return generation.ReferenceFile{}, &UploadError{Message: fmt.Sprintf("%s is not an image", header.Filename)}
	}

	id := strings.ToLower(ulid.Make().String())
	name := fmt.Sprintf("upload_%d_%s%s", time.Now().UnixMilli(), id[len(id)-10:], detected.Extension())
	path := filepath.Join(limits.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return generation.ReferenceFile{}, fmt.Errorf("store upload: %w", err)
	}
	metrics.RecordUpload(int64(len(data)))
	return generation.ReferenceFile{Path: path, Filename: name, Size: int64(len(data))}, nil
}

// RemoveUploads deletes stored uploads, ignoring failures.
func RemoveUploads(files []generation.ReferenceFile) {
	for _, file := range files {
		_ = os.Remove(file.Path)
	}
}
