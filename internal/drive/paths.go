package drive

import (
	"strings"

	"drive-go/internal/database/queries"
)

// PathSeparator joins folder names in resolved paths.
const PathSeparator = "/"

// ResolvePaths maps every folder in the listing to its slash-joined path.
// Only parent links inside the listing are followed: a folder whose parent is
// absent starts its own path. It reads nothing but its input.
//
// The walk is iterative and memoized, so arbitrarily deep listings cost one
// visit per folder. A parent chain that loops back on itself (impossible for
// rows read from a consistent database, but the input is caller-supplied)
// is cut at the repeated folder, which is then treated as a root.
func ResolvePaths(folders []queries.ClosureRow) map[int64]string {
	byID := make(map[int64]queries.ClosureRow, len(folders))
	for _, f := range folders {
		byID[f.FolderID] = f
	}

	paths := make(map[int64]string, len(byID))
	var chain []int64
	onChain := make(map[int64]bool)

	for _, start := range folders {
		if _, done := paths[start.FolderID]; done {
			continue
		}

		// Climb until a resolved folder, a folder whose parent is outside
		// the listing, or a loop.
		chain = chain[:0]
		clear(onChain)
		prefix, hasPrefix := "", false
		id := start.FolderID
		for {
			chain = append(chain, id)
			onChain[id] = true

			f := byID[id]
			if !f.ParentID.Valid {
				break
			}
			parent := f.ParentID.Int64
			if p, ok := paths[parent]; ok {
				prefix, hasPrefix = p, true
				break
			}
			if _, ok := byID[parent]; !ok || onChain[parent] {
				break
			}
			id = parent
		}

		// Unwind from the topmost folder back down to start.
		for i := len(chain) - 1; i >= 0; i-- {
			name := byID[chain[i]].Name
			if hasPrefix {
				prefix = prefix + PathSeparator + name
			} else {
				prefix, hasPrefix = name, true
			}
			paths[chain[i]] = prefix
		}
	}

	return paths
}

// JoinAncestors renders the path of a folder from its ancestor listing
// (top-level first) and its own name.
func JoinAncestors(ancestors []queries.ClosureRow, name string) string {
	parts := make([]string, 0, len(ancestors)+1)
	for _, a := range ancestors {
		parts = append(parts, a.Name)
	}
	parts = append(parts, name)
	return strings.Join(parts, PathSeparator)
}
