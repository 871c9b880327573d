// internal/storage/store.go
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Size        int64
	ContentType string
}

// ContentStore holds the raw bytes of uploaded slides.
type ContentStore interface {
	Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, objectName string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, objectName string) error
}

// Presigner is implemented by stores that can hand out direct download
// URLs. Stores without it are served through the API.
type Presigner interface {
	PresignedURL(ctx context.Context, objectName string) (string, error)
}

var (
	_ ContentStore = (*MemoryStore)(nil)
	_ ContentStore = (*MinIOClient)(nil)
	_ Presigner    = (*MinIOClient)(nil)
)
