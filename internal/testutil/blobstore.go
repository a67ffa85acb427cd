package testutil

import (
	"drive-go/internal/blobstore"
)

// NewTestBlobStore creates a new in-memory blob store for testing. The
// concrete type is returned so tests can inspect what was stored.
func NewTestBlobStore() *blobstore.MemoryStore {
	return blobstore.NewMemoryStore()
}
