package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ignorePattern is a parsed ignore pattern with its matching strategy.
type ignorePattern struct {
	pattern   string
	matchPath bool // true = match against relative path; false = match against basename only
	dirOnly   bool // pattern ended in '/': match any parent directory name
}

// IgnoreMatcher checks file paths against a set of ignore patterns.
// Patterns without '/' match against the file's basename only.
// Patterns with '/' match against the full relative path from the directory root.
// A pattern ending in '/' matches files below any directory of that name.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var patterns []ignorePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		if strings.HasSuffix(raw, "/") {
			patterns = append(patterns, ignorePattern{
				pattern: strings.TrimSuffix(raw, "/"),
				dirOnly: true,
			})
			continue
		}
		patterns = append(patterns, ignorePattern{
			pattern:   raw,
			matchPath: strings.Contains(raw, "/"),
		})
	}
	return &IgnoreMatcher{patterns: patterns}
}

// Match reports whether the given relative path should be ignored.
// relativePath should use filepath separators and be relative to the directory root.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if len(m.patterns) == 0 {
		return false
	}

	// Normalize to forward slashes for consistent matching.
	normalized := filepath.ToSlash(relativePath)
	basename := filepath.Base(relativePath)

	dirs := strings.Split(normalized, "/")
	dirs = dirs[:len(dirs)-1]

	for _, p := range m.patterns {
		var matched bool
		var err error
		if p.dirOnly {
			matched = matchAny(p.pattern, dirs)
		} else if p.matchPath {
			matched, err = filepath.Match(p.pattern, normalized)
		} else {
			matched, err = filepath.Match(p.pattern, basename)
		}
		if err != nil {
			// Bad pattern: skip it.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// MatchDir reports whether the directory at relativePath, and everything
// below it, should be ignored. Directory patterns match any segment of the
// path and patterns containing '/' match the whole path. Basename patterns
// apply to files only.
func (m *IgnoreMatcher) MatchDir(relativePath string) bool {
	normalized := filepath.ToSlash(relativePath)
	segments := strings.Split(normalized, "/")

	for _, p := range m.patterns {
		switch {
		case p.dirOnly:
			if matchAny(p.pattern, segments) {
				return true
			}
		case p.matchPath:
			if ok, err := filepath.Match(p.pattern, normalized); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func matchAny(pattern string, names []string) bool {
	for _, name := range names {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// ParseIgnoreFile reads a .driveignore file and returns the raw pattern strings.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
