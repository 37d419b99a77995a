// Package imagestore moves user-picked images out of transient locations
// into storage that survives restarts.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ready2cook/backend/internal/domain"
)

// LocalStore relocates images into a directory on the local filesystem.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the target directory when it does not exist.
func NewLocalStore(dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("imagestore: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: mkdir: %w", err)
	}
	return &LocalStore{dir: abs}, nil
}

// Dir returns the absolute directory images are moved into.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Relocate moves sourcePath to <dir>/<base name>. An existing file with the
// same name is replaced.
func (s *LocalStore) Relocate(_ context.Context, sourcePath string) (string, error) {
	name, err := imageName(sourcePath)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(s.dir, name)

	if filepath.Clean(sourcePath) == dest {
		return dest, nil
	}

	if err := os.Rename(sourcePath, dest); err == nil {
		return dest, nil
	} else if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: image %s: %v", domain.ErrStorage, sourcePath, err)
	}

	// Rename fails across filesystems; fall back to copy and remove.
	if err := copyFile(sourcePath, dest); err != nil {
		return "", fmt.Errorf("%w: copy image: %v", domain.ErrStorage, err)
	}
	if err := os.Remove(sourcePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: remove source image: %v", domain.ErrStorage, err)
	}
	return dest, nil
}

// Discard deletes an image previously returned by Relocate. Locations
// outside the store directory are ignored.
func (s *LocalStore) Discard(_ context.Context, location string) error {
	clean := filepath.Clean(location)
	if filepath.Dir(clean) != s.dir {
		return nil
	}
	if err := os.Remove(clean); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: discard image: %v", domain.ErrStorage, err)
	}
	return nil
}

// imageName derives the stored file name from the source path.
func imageName(sourcePath string) (string, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return "", fmt.Errorf("%w: empty image path", domain.ErrInvalidRequest)
	}
	name := filepath.Base(filepath.Clean(sourcePath))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: image path %q has no file name", domain.ErrInvalidRequest, sourcePath)
	}
	return name, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".img-tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dst)
}
