// Package upload validates user images and hands them to a storage backend.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"
)

var (
	ErrInvalidType = errors.New("invalid file type")
	ErrTooLarge    = errors.New("file too large")
	// ErrContentMismatch means the bytes do not decode as the declared image type
	ErrContentMismatch = errors.New("file content does not match its type")
)

// declared content type -> image.DecodeConfig format name
var allowedTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/jpg":  "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
}

var allowedExtensions = map[string]string{
	"jpg":  "jpeg",
	"jpeg": "jpeg",
	"png":  "png",
	"webp": "webp",
}

// Store persists an object and returns the public URL or path for it
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Service checks uploaded images and stores them under generated names
type Service struct {
	store    Store
	maxBytes int64
	sem      *semaphore.Weighted
	now      func() time.Time
}

// NewService creates an upload service. concurrency caps parallel writes to the store.
func NewService(store Store, maxBytes, concurrency int64) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		store:    store,
		maxBytes: maxBytes,
		sem:      semaphore.NewWeighted(concurrency),
		now:      time.Now,
	}
}

// MaxBytes is the largest accepted image
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// SaveImage validates the declared type, size and actual content, then stores the image
func (s *Service) SaveImage(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, contentType)
	}
	mediaType = strings.ToLower(mediaType)

	format, ok := allowedTypes[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidType, mediaType)
	}

	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	_, decoded, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || decoded != format {
		return "", fmt.Errorf("%w: declared %s", ErrContentMismatch, mediaType)
	}

	key := fmt.Sprintf("user-%d-%s.%s", s.now().UnixMilli(), uuid.NewString()[:8], extension(filename, format))

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.sem.Release(1)

	return s.store.Put(ctx, key, mediaType, data)
}

// extension keeps the client's extension when it agrees with the content
func extension(filename, format string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if allowedExtensions[ext] == format {
		return ext
	}
	if format == "jpeg" {
		return "jpg"
	}
	return format
}
