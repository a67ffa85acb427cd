package drive

import (
	"context"
	"io"
)

// BlobStore holds file contents keyed by the opaque blob key recorded in a
// history row. Operations stream through io.Reader/io.Writer so large files
// are never held in memory.
type BlobStore interface {
	// Put stores size bytes read from r under key, replacing any existing blob.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get writes the blob stored under key to w. A missing key returns a
	// *NotFoundError of kind "blob".
	Get(ctx context.Context, key string, w io.Writer) error

	// Delete removes the blob stored under key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// ValidateSetup verifies that the store is reachable and writable.
	ValidateSetup(ctx context.Context) error
}
