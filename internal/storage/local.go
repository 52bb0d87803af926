package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore keeps files in a directory on the local disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed and returns a store rooted there.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(location string) (string, error) {
	if location == "" || filepath.Base(location) != location {
		return "", fmt.Errorf("invalid file location %q", location)
	}
	return filepath.Join(s.dir, location), nil
}

// Save writes r to a new file named key. A partially written file is removed.
func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return "", fmt.Errorf("close file: %w", err)
	}
	return key, nil
}

// Open opens a stored file for reading.
func (s *LocalStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	p, err := s.path(location)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, location string) error {
	p, err := s.path(location)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
