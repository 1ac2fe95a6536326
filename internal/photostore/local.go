package photostore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps photos on the local filesystem under a single directory.
// Locators are relative filenames, so the directory can be served statically.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the upload directory if needed and returns a store
// rooted at it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes the photo under a random filename and returns it.
func (s *LocalStore) Save(_ context.Context, data []byte, ext string) (string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	return name, nil
}

// Delete removes a stored photo.
func (s *LocalStore) Delete(_ context.Context, locator string) error {
	if err := os.Remove(s.path(locator)); err != nil {
		return fmt.Errorf("failed to delete photo %s: %w", locator, err)
	}
	return nil
}

// Read returns the photo bytes.
func (s *LocalStore) Read(_ context.Context, locator string) ([]byte, error) {
	data, err := os.ReadFile(s.path(locator))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", locator, err)
	}
	return data, nil
}

// Size returns the photo size in bytes.
func (s *LocalStore) Size(_ context.Context, locator string) (int64, error) {
	info, err := os.Stat(s.path(locator))
	if err != nil {
		return 0, fmt.Errorf("failed to stat photo %s: %w", locator, err)
	}
	return info.Size(), nil
}

// Dir returns the directory photos are stored in.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) path(locator string) string {
	// Locators are bare filenames; path components are never honored.
	return filepath.Join(s.dir, filepath.Base(locator))
}
