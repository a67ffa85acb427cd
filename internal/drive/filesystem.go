package drive

import (
	"io"
	"io/fs"
)

// LocalPath is a validated path on the uploading machine with the stat info
// captured when it was resolved.
type LocalPath struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewLocalPath creates a LocalPath from its components. Intended for
// FilesystemManager implementations.
func NewLocalPath(absPath string, isDir bool, info fs.FileInfo) *LocalPath {
	return &LocalPath{absPath: absPath, isDir: isDir, info: info}
}

func (p *LocalPath) String() string   { return p.absPath }
func (p *LocalPath) IsDir() bool      { return p.isDir }
func (p *LocalPath) Info() fs.FileInfo { return p.info }

// FilesystemManager reads local files for upload. It abstracts file access so
// uploads can be tested without touching the real filesystem.
type FilesystemManager interface {
	// Resolve makes rawPath absolute, stats it and rejects anything that is
	// not a regular file or directory.
	Resolve(rawPath string) (*LocalPath, error)

	// Open opens a regular file for reading.
	Open(path *LocalPath) (io.ReadCloser, error)

	// FindFiles lists the regular files under dir that are not ignored.
	// With recursive set, subdirectories are walked too.
	FindFiles(dir *LocalPath, recursive bool) ([]*LocalPath, error)

	// FindDirs lists the subdirectories under dir that are not ignored,
	// parents first. Empty directories are included.
	FindDirs(dir *LocalPath, recursive bool) ([]*LocalPath, error)
}
