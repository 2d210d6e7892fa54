package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore serves media files from the local filesystem.
type LocalStore struct {
	mediaDir string
}

// NewLocalStore creates a local filesystem media store.
func NewLocalStore(mediaDir string) *LocalStore {
	return &LocalStore{mediaDir: mediaDir}
}

// path maps a key to a file under the media directory, rejecting keys that
// would escape it.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("empty key")
	}
	full := filepath.Join(s.mediaDir, clean)
	rel, err := filepath.Rel(s.mediaDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes media directory", key)
	}
	return full, nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// LocalPath returns the filesystem path if the file exists, or "".
func (s *LocalStore) LocalPath(key string) string {
	p, err := s.path(key)
	if err != nil {
		return ""
	}
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		return p
	}
	return ""
}

func (s *LocalStore) URL(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (s *LocalStore) Exists(ctx context.Context, key string) bool {
	return s.LocalPath(key) != ""
}

func (s *LocalStore) Type() string { return "local" }

// Dir returns the media directory path.
func (s *LocalStore) Dir() string { return s.mediaDir }
