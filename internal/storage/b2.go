package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/kurin/blazer/b2"
)

// B2Store keeps files in a Backblaze B2 bucket.
type B2Store struct {
	client *b2.Client
	bucket *b2.Bucket
}

// NewB2Store connects to B2 and resolves the bucket.
func NewB2Store(ctx context.Context, accountID, appKey, bucketName string) (*B2Store, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, fmt.Errorf("create b2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("get bucket: %w", err)
	}

	return &B2Store{client: client, bucket: bucket}, nil
}

// Save uploads r as object key.
func (s *B2Store) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return key, nil
}

// Open streams an object.
func (s *B2Store) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	obj := s.bucket.Object(location)
	if _, err := obj.Attrs(ctx); err != nil {
		if b2.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj.NewReader(ctx), nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *B2Store) Delete(ctx context.Context, location string) error {
	if err := s.bucket.Object(location).Delete(ctx); err != nil && !b2.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
