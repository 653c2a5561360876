// Package storage defines the blob store abstraction artifacts are written to and read
// back from. Implementations live in the local, gcs and memory subpackages.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by GetObject when no object exists at the path.
var ErrNotFound = errors.New("object not found")

// BlobStore writes and reads artifacts by relative path.
type BlobStore interface {
	// PutObject stores data at path and returns a URI describing where it landed.
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
	// GetObject opens the object at path. The caller closes the reader.
	GetObject(ctx context.Context, path string) (io.ReadCloser, error)
}

// JoinPath prefixes name with prefix, ignoring an empty prefix.
func JoinPath(prefix, name string) string {
	for len(prefix) > 0 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
