package blobstore

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"drive-go/internal/drive"
)

// storeFactories builds a fresh instance of every implementation so the
// behavioural tests below run against each of them.
func storeFactories(t *testing.T) map[string]func() drive.BlobStore {
	t.Helper()
	return map[string]func() drive.BlobStore{
		"memory": func() drive.BlobStore { return NewMemoryStore() },
		"filesystem": func() drive.BlobStore {
			s, err := NewFileSystemStore(t.TempDir())
			if err != nil {
				t.Fatalf("NewFileSystemStore() error = %v", err)
			}
			return s
		},
		"s3": func() drive.BlobStore {
			s, err := NewS3Store(newFakeS3("bucket"), "bucket", "drive/")
			if err != nil {
				t.Fatalf("NewS3Store() error = %v", err)
			}
			return s
		},
	}
}

func TestBlobStore_PutAndGet(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		key     string
		content string
	}{
		{name: "simple key", key: "abc123", content: "hello world"},
		{name: "nested key", key: "alice/3f2a9c", content: "nested"},
		{name: "empty content", key: "alice/empty", content: ""},
		{name: "large content", key: "alice/large", content: strings.Repeat("x", 10000)},
	}

	for storeName, newStore := range storeFactories(t) {
		t.Run(storeName, func(t *testing.T) {
			store := newStore()
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					if err := store.Put(ctx, tt.key, strings.NewReader(tt.content), int64(len(tt.content))); err != nil {
						t.Fatalf("Put() error = %v", err)
					}

					var buf bytes.Buffer
					if err := store.Get(ctx, tt.key, &buf); err != nil {
						t.Fatalf("Get() error = %v", err)
					}
					if got := buf.String(); got != tt.content {
						t.Errorf("Get() = %q, want %q", got, tt.content)
					}
				})
			}
		})
	}
}

func TestBlobStore_PutReplaces(t *testing.T) {
	ctx := context.Background()

	for storeName, newStore := range storeFactories(t) {
		t.Run(storeName, func(t *testing.T) {
			store := newStore()
			for _, content := range []string{"first", "second version"} {
				if err := store.Put(ctx, "k", strings.NewReader(content), int64(len(content))); err != nil {
					t.Fatalf("Put(%q) error = %v", content, err)
				}
			}

			var buf bytes.Buffer
			if err := store.Get(ctx, "k", &buf); err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if buf.String() != "second version" {
				t.Errorf("Get() = %q, want %q", buf.String(), "second version")
			}
		})
	}
}

func TestBlobStore_GetNotFound(t *testing.T) {
	ctx := context.Background()

	for storeName, newStore := range storeFactories(t) {
		t.Run(storeName, func(t *testing.T) {
			store := newStore()

			var buf bytes.Buffer
			err := store.Get(ctx, "missing/key", &buf)
			if !errors.Is(err, drive.ErrNotFound) {
				t.Fatalf("Get() error = %v, want ErrNotFound", err)
			}

			var nf *drive.NotFoundError
			if !errors.As(err, &nf) || nf.Kind != "blob" {
				t.Errorf("Get() error = %#v, want NotFoundError of kind blob", err)
			}
		})
	}
}

func TestBlobStore_SizeMismatch(t *testing.T) {
	ctx := context.Background()

	for storeName, newStore := range storeFactories(t) {
		t.Run(storeName, func(t *testing.T) {
			store := newStore()

			err := store.Put(ctx, "k", strings.NewReader("hello"), 100)
			if err == nil {
				t.Fatal("Put() expected error for size mismatch")
			}
			if !strings.Contains(err.Error(), "size mismatch") {
				t.Errorf("Put() error = %v, want size mismatch", err)
			}

			var buf bytes.Buffer
			if err := store.Get(ctx, "k", &buf); !errors.Is(err, drive.ErrNotFound) {
				t.Errorf("Get() after failed Put error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestBlobStore_Delete(t *testing.T) {
	ctx := context.Background()

	for storeName, newStore := range storeFactories(t) {
		t.Run(storeName, func(t *testing.T) {
			store := newStore()

			if err := store.Put(ctx, "alice/doomed", strings.NewReader("bye"), 3); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if err := store.Delete(ctx, "alice/doomed"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}

			var buf bytes.Buffer
			if err := store.Get(ctx, "alice/doomed", &buf); !errors.Is(err, drive.ErrNotFound) {
				t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
			}

			if err := store.Delete(ctx, "alice/doomed"); err != nil {
				t.Errorf("Delete() of missing key error = %v, want nil", err)
			}
		})
	}
}

func TestBlobStore_InvalidKey(t *testing.T) {
	ctx := context.Background()
	keys := []string{"", "/abs", "a/../b", "a//b", "./a", "a/"}

	for storeName, newStore := range storeFactories(t) {
		t.Run(storeName, func(t *testing.T) {
			store := newStore()
			for _, key := range keys {
				if err := store.Put(ctx, key, strings.NewReader("x"), 1); err == nil {
					t.Errorf("Put(%q) expected error", key)
				}
			}
		})
	}
}

func TestBlobStore_ValidateSetup(t *testing.T) {
	ctx := context.Background()

	for storeName, newStore := range storeFactories(t) {
		t.Run(storeName, func(t *testing.T) {
			if err := newStore().ValidateSetup(ctx); err != nil {
				t.Errorf("ValidateSetup() error = %v", err)
			}
		})
	}
}
