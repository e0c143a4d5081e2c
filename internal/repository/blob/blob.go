// Package blob stores uploaded document content. Keys are slash separated
// object names; the store does not interpret them.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("blob not found")

// Info describes a stored object.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is a flat object store.
type Store interface {
	// Put writes the object, replacing any existing one under key.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	// Get opens the object. Callers close the returned reader.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
