package object

import (
	"context"
	"io"
	"time"
)

// ObjectStore defines the contract for durable binary object storage.
// Keys are stable and chosen by the caller; uploading the same key twice
// with identical content must be safe.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	URL(key string) string
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
