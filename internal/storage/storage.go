// Package storage keeps uploaded thesis PDFs outside the database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"digithesis/internal/config"
)

// ErrNotFound is returned when a stored object does not exist.
var ErrNotFound = errors.New("stored file not found")

// Store saves, streams and deletes uploaded files. Locations returned by Save
// are opaque and only meaningful to the same Store.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader) (location string, err error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Delete(ctx context.Context, location string) error
}

// NewKey returns a fresh unique object name for an upload.
func NewKey() string {
	return uuid.NewString() + ".pdf"
}

// New builds the Store selected by cfg.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.StorageB2:
		return NewB2Store(ctx, cfg.B2AccountID, cfg.B2AppKey, cfg.B2Bucket)
	case config.StorageLocal, "":
		return NewLocalStore(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
