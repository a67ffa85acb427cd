package database

import (
	"context"
	"fmt"
	"slices"

	"drive-go/internal/database/queries"
	"drive-go/internal/drive"
)

// VerifyClosure rebuilds the expected closure from parent pointers and
// reports every folder whose closure rows differ from it.
func (s *SQLDatabase) VerifyClosure(ctx context.Context) ([]drive.ClosureViolation, error) {
	var violations []drive.ClosureViolation
	err := s.inTx(ctx, "verify closure", func(q *queries.Queries) error {
		folders, err := q.ListAllFolders(ctx)
		if err != nil {
			return fmt.Errorf("listing folders: %w", err)
		}
		edges, err := q.ListAllEdges(ctx)
		if err != nil {
			return fmt.Errorf("listing closure rows: %w", err)
		}
		violations = checkClosure(folders, edges)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return violations, nil
}

// checkClosure compares edges with the ancestor chains implied by the
// folders' parent pointers. Folders are reported in the order given.
func checkClosure(folders []queries.Folder, edges []queries.FolderClosure) []drive.ClosureViolation {
	var violations []drive.ClosureViolation
	report := func(id int64, format string, args ...any) {
		violations = append(violations, drive.ClosureViolation{FolderID: id, Problem: fmt.Sprintf(format, args...)})
	}

	byID := make(map[int64]queries.Folder, len(folders))
	for _, f := range folders {
		byID[f.ID] = f
	}

	// actual[descendant][ancestor] = depth
	actual := make(map[int64]map[int64]int64, len(folders))
	for _, e := range edges {
		if _, ok := byID[e.Descendant]; !ok {
			report(e.Descendant, "closure row (%d, %d, %d) references a missing folder", e.Ancestor, e.Descendant, e.Depth)
			continue
		}
		if _, ok := byID[e.Ancestor]; !ok {
			report(e.Descendant, "closure row (%d, %d, %d) references a missing folder", e.Ancestor, e.Descendant, e.Depth)
			continue
		}
		if actual[e.Descendant] == nil {
			actual[e.Descendant] = make(map[int64]int64)
		}
		actual[e.Descendant][e.Ancestor] = e.Depth
	}

	for _, f := range folders {
		want := map[int64]int64{f.ID: 0}
		cur := f
		for depth := int64(1); cur.ParentID.Valid; depth++ {
			parent, ok := byID[cur.ParentID.Int64]
			if !ok {
				report(f.ID, "parent %d of folder %d does not exist", cur.ParentID.Int64, cur.ID)
				break
			}
			if _, seen := want[parent.ID]; seen {
				report(f.ID, "parent chain loops through folder %d", parent.ID)
				break
			}
			want[parent.ID] = depth
			cur = parent
		}

		got := actual[f.ID]
		for _, ancestor := range sortedKeys(want) {
			d, ok := got[ancestor]
			switch {
			case !ok:
				report(f.ID, "missing closure row (%d, %d, %d)", ancestor, f.ID, want[ancestor])
			case d != want[ancestor]:
				report(f.ID, "closure row (%d, %d) has depth %d, want %d", ancestor, f.ID, d, want[ancestor])
			}
		}
		for _, ancestor := range sortedKeys(got) {
			if _, ok := want[ancestor]; !ok {
				report(f.ID, "unexpected closure row (%d, %d, %d)", ancestor, f.ID, got[ancestor])
			}
		}
	}

	return violations
}

func sortedKeys(m map[int64]int64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
