package blob

import (
	"context"
	"time"
)

// Store is the binary object store behind the photo gallery.
type Store interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Remove(ctx context.Context, path string) error
	// SignedURL issues a time-boxed guest-facing URL for an object.
	SignedURL(path string, ttl time.Duration) (string, error)
}
