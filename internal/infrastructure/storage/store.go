package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("object not found")

// Store keeps uploaded campaign attachments.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
