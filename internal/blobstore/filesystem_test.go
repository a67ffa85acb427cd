package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSystemStore_Layout(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	if err := s.Put(context.Background(), "alice/v1", strings.NewReader("data"), 4); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "alice", "v1"))
	if err != nil {
		t.Fatalf("blob file not at expected path: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("blob file = %q, want %q", got, "data")
	}
}

func TestFileSystemStore_ValidateSetup(t *testing.T) {
	t.Run("missing root directory", func(t *testing.T) {
		s := &FileSystemStore{root: "/nonexistent/path"}
		if err := s.ValidateSetup(context.Background()); err == nil {
			t.Error("ValidateSetup() expected error for missing root")
		}
	})

	t.Run("root is a file", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		s := &FileSystemStore{root: f}
		if err := s.ValidateSetup(context.Background()); err == nil {
			t.Error("ValidateSetup() expected error for non-directory root")
		}
	})
}

func TestFileSystemStore_AtomicWrite(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	ctx := context.Background()

	if err := s.Put(ctx, "alice/ok", strings.NewReader("hello world"), 11); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	// A failed write must not leave its temp file behind either.
	_ = s.Put(ctx, "alice/short", strings.NewReader("hi"), 50)

	entries, err := os.ReadDir(filepath.Join(root, "alice"))
	if err != nil {
		t.Fatalf("failed to read blob dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("blob dir has %d entries, want 1", len(entries))
	}
}
