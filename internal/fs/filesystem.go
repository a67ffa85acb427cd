package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"drive-go/internal/drive"
)

// IgnoreFileName is read from the root of every uploaded directory.
const IgnoreFileName = ".driveignore"

// OSFilesystemManager is the real filesystem implementation of
// drive.FilesystemManager.
type OSFilesystemManager struct {
	ignorePatterns []string
}

// NewOSFilesystemManager creates a filesystem manager. ignorePatterns apply
// to every directory upload in addition to the directory's own ignore file.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{ignorePatterns: ignorePatterns}
}

// Resolve validates a raw path and returns a LocalPath.
func (m *OSFilesystemManager) Resolve(rawPath string) (*drive.LocalPath, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return nil, fmt.Errorf("symlinks not supported: %s", absPath)
	case mode&os.ModeDevice != 0:
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	case mode&os.ModeNamedPipe != 0:
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	case mode&os.ModeSocket != 0:
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return drive.NewLocalPath(absPath, info.IsDir(), info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *drive.LocalPath) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// FindFiles discovers regular files under dir, skipping those matched by the
// configured patterns or the directory's ignore file.
func (m *OSFilesystemManager) FindFiles(dir *drive.LocalPath, recursive bool) ([]*drive.LocalPath, error) {
	return m.find(dir, recursive, false)
}

// FindDirs lists the subdirectories under dir that are not ignored, each
// parent before its children. Empty directories are included.
func (m *OSFilesystemManager) FindDirs(dir *drive.LocalPath, recursive bool) ([]*drive.LocalPath, error) {
	return m.find(dir, recursive, true)
}

func (m *OSFilesystemManager) find(dir *drive.LocalPath, recursive, dirs bool) ([]*drive.LocalPath, error) {
	if !dir.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir.String())
	}

	filePatterns, err := ParseIgnoreFile(filepath.Join(dir.String(), IgnoreFileName))
	if err != nil {
		return nil, err
	}
	patterns := append(append([]string{IgnoreFileName}, m.ignorePatterns...), filePatterns...)
	matcher := NewIgnoreMatcher(patterns)

	var paths []*drive.LocalPath
	err = filepath.WalkDir(dir.String(), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir.String() {
			return nil
		}

		rel, err := filepath.Rel(dir.String(), p)
		if err != nil {
			return fmt.Errorf("calculating relative path: %w", err)
		}

		if d.IsDir() {
			if matcher.MatchDir(rel) {
				return filepath.SkipDir
			}
			if dirs {
				info, err := d.Info()
				if err != nil {
					return fmt.Errorf("stat %s: %w", p, err)
				}
				paths = append(paths, drive.NewLocalPath(p, true, info))
			}
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if dirs || !d.Type().IsRegular() || matcher.Match(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		paths = append(paths, drive.NewLocalPath(p, false, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return paths, nil
}

var _ drive.FilesystemManager = (*OSFilesystemManager)(nil)
