// Package storage abstracts the blob store holding uploaded documents and
// generated exports.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the blob-store surface the upload and export flows need.
type ObjectStore interface {
	// Upload writes the object and returns its storage key unchanged.
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	// Download streams the object body. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// PublicURL returns the unauthenticated URL for an object, for stores
	// fronted by a public bucket or CDN.
	PublicURL(key string) string
	// SignedURL returns a presigned GET URL valid for ttl.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}
