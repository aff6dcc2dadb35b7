package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/juju/errors"

	"github.com/webtray/webtray/internal/types"
)

// FileStore writes one file per key under a directory. Writes go to a
// temporary file first and are renamed into place.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.NotValidf("empty storage path")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

func (f *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("blob %q", key)
		}
		return nil, fmt.Errorf("failed to read blob %q: %w", key, err)
	}
	return data, nil
}

func (f *FileStore) Save(_ context.Context, key string, data []byte) error {
	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, ".blob-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write blob %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write blob %q: %w", key, err)
	}
	return os.Rename(tmp.Name(), target)
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %q: %w", key, err)
	}
	return nil
}

var _ types.BlobStore = (*FileStore)(nil)
