package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"drive-go/internal/drive"
)

// FileSystemStore keeps blobs as files below a root directory. Keys map to
// relative paths, so "alice/3f2a..." is stored at <root>/alice/3f2a...
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a filesystem store rooted at the given path,
// creating the directory if needed.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

// Root returns the directory blobs are stored under.
func (s *FileSystemStore) Root() string {
	return s.root
}

func (s *FileSystemStore) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Put writes the blob atomically; an existing blob under key is replaced.
func (s *FileSystemStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	destPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	return writeFile(destPath, r, size)
}

// Get copies the blob to w.
func (s *FileSystemStore) Get(ctx context.Context, key string, w io.Writer) error {
	srcPath, err := s.path(key)
	if err != nil {
		return err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &drive.NotFoundError{Kind: "blob", ID: key}
		}
		return fmt.Errorf("failed to open blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read blob: %w", err)
	}

	return nil
}

// Delete removes the blob file. Missing keys are ignored.
func (s *FileSystemStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the root exists, is a directory and is writable.
func (s *FileSystemStore) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("blob root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("blob root is not a directory: %s", s.root)
	}

	check, err := os.CreateTemp(s.root, ".writecheck-*")
	if err != nil {
		return fmt.Errorf("blob root not writable: %w", err)
	}
	check.Close()
	os.Remove(check.Name())

	return nil
}

// writeFile writes data from r to destPath using a temp file in the same
// directory followed by a rename.
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ drive.BlobStore = (*FileSystemStore)(nil)
