package upload

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// LocalStore writes files to a directory served as static content
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(dir, urlPrefix string) *LocalStore {
	return &LocalStore{dir: dir, urlPrefix: urlPrefix}
}

// Dir is the directory files are written to
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, filepath.Base(key)), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return path.Join(s.urlPrefix, key), nil
}
