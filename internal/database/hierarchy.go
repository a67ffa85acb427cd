package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"drive-go/internal/database/queries"
	"drive-go/internal/drive"
)

// maxSuffixAttempts bounds the search for a free top-level name in CopySubtree.
const maxSuffixAttempts = 8

// Folder operations

func (s *SQLDatabase) CreateFolder(ctx context.Context, name string, parentID *int64, ownerID string) (*queries.Folder, error) {
	var folder queries.Folder
	err := s.inTx(ctx, "create folder", func(q *queries.Queries) error {
		var parent sql.NullInt64
		if parentID != nil {
			p, err := loadFolder(ctx, q, *parentID)
			if err != nil {
				return err
			}
			if p.OwnerID != ownerID {
				return &drive.NotFoundError{Kind: "folder", ID: *parentID}
			}
			parent = sql.NullInt64{Int64: p.ID, Valid: true}
		} else if err := checkRootName(ctx, q, ownerID, name, 0); err != nil {
			return err
		}

		f, err := insertFolder(ctx, q, name, ownerID, parent, s.now())
		if err != nil {
			if parentID != nil && isForeignKeyViolation(err) {
				return &drive.NotFoundError{Kind: "folder", ID: *parentID}
			}
			return err
		}
		folder = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (s *SQLDatabase) MoveFolder(ctx context.Context, folderID, newParentID int64) error {
	return s.inTx(ctx, "move folder", func(q *queries.Queries) error {
		folder, err := loadFolder(ctx, q, folderID)
		if err != nil {
			return err
		}
		if newParentID == folderID {
			return &drive.CycleError{FolderID: folderID, NewParentID: newParentID}
		}

		parent, err := loadFolder(ctx, q, newParentID)
		if err != nil {
			return err
		}
		if parent.OwnerID != folder.OwnerID {
			return &drive.NotFoundError{Kind: "folder", ID: newParentID}
		}

		below, err := q.IsDescendant(ctx, folderID, newParentID)
		if err != nil {
			return fmt.Errorf("checking for cycle: %w", err)
		}
		if below {
			return &drive.CycleError{FolderID: folderID, NewParentID: newParentID}
		}

		if folder.ParentID.Valid && folder.ParentID.Int64 == newParentID {
			return nil
		}
		return relink(ctx, q, folderID, sql.NullInt64{Int64: newParentID, Valid: true})
	})
}

func (s *SQLDatabase) MoveFolderToRoot(ctx context.Context, folderID int64) error {
	return s.inTx(ctx, "move folder to root", func(q *queries.Queries) error {
		folder, err := loadFolder(ctx, q, folderID)
		if err != nil {
			return err
		}
		if folder.IsRoot() {
			return nil
		}
		if err := checkRootName(ctx, q, folder.OwnerID, folder.Name, folder.ID); err != nil {
			return err
		}
		return relink(ctx, q, folderID, sql.NullInt64{})
	})
}

func (s *SQLDatabase) DeleteFolder(ctx context.Context, folderID int64, deleteFiles bool) ([]string, error) {
	var blobKeys []string
	err := s.inTx(ctx, "delete folder", func(q *queries.Queries) error {
		if _, err := loadFolder(ctx, q, folderID); err != nil {
			return err
		}

		// Children come before parents so no folder row outlives its parent.
		rows, err := q.GetDescendantsDeepestFirst(ctx, folderID)
		if err != nil {
			return fmt.Errorf("listing descendants: %w", err)
		}
		ids := make([]int64, len(rows))
		for i, r := range rows {
			ids[i] = r.FolderID
		}

		if deleteFiles {
			files, err := q.ListFilesUnderFolder(ctx, folderID)
			if err != nil {
				return fmt.Errorf("listing files: %w", err)
			}
			for _, f := range files {
				keys, err := deleteFileRows(ctx, q, f.ID)
				if err != nil {
					return err
				}
				blobKeys = append(blobKeys, keys...)
			}
		} else if err := q.DetachFilesInFolders(ctx, ids); err != nil {
			return fmt.Errorf("detaching files: %w", err)
		}

		if err := q.DeleteEdgesFor(ctx, ids); err != nil {
			return fmt.Errorf("deleting closure rows: %w", err)
		}
		for _, id := range ids {
			if err := q.DeleteFolder(ctx, id); err != nil {
				return fmt.Errorf("deleting folder %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blobKeys, nil
}

func (s *SQLDatabase) RenameFolder(ctx context.Context, folderID int64, name string) error {
	return s.inTx(ctx, "rename folder", func(q *queries.Queries) error {
		folder, err := loadFolder(ctx, q, folderID)
		if err != nil {
			return err
		}
		if folder.IsRoot() {
			if err := checkRootName(ctx, q, folder.OwnerID, name, folder.ID); err != nil {
				return err
			}
		}
		if _, err := q.UpdateFolderName(ctx, name, folderID); err != nil {
			return fmt.Errorf("renaming folder: %w", err)
		}
		return nil
	})
}

func (s *SQLDatabase) GetFolder(ctx context.Context, folderID int64) (*queries.Folder, error) {
	f, err := loadFolder(ctx, s.queries, folderID)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *SQLDatabase) FindRootFolderByName(ctx context.Context, ownerID, name string) (*queries.Folder, error) {
	f, err := s.queries.GetRootFolderByName(ctx, ownerID, name)
	if err != nil {
		if isNoRows(err) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding root folder by name: %w", err)
	}
	return &f, nil
}

func (s *SQLDatabase) ListRootFolders(ctx context.Context, ownerID string) ([]*queries.Folder, error) {
	items, err := s.queries.ListRootFolders(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing root folders: %w", err)
	}
	return folderPtrs(items), nil
}

func (s *SQLDatabase) ListChildFolders(ctx context.Context, parentID int64) ([]*queries.Folder, error) {
	if _, err := loadFolder(ctx, s.queries, parentID); err != nil {
		return nil, err
	}
	items, err := s.queries.ListChildFolders(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing child folders: %w", err)
	}
	return folderPtrs(items), nil
}

func (s *SQLDatabase) GetAncestors(ctx context.Context, folderID int64) ([]queries.ClosureRow, error) {
	if _, err := loadFolder(ctx, s.queries, folderID); err != nil {
		return nil, err
	}
	rows, err := s.queries.GetAncestors(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("listing ancestors: %w", err)
	}
	return rows, nil
}

func (s *SQLDatabase) GetSubtreeFlat(ctx context.Context, folderID int64, ownerID string) (*drive.Subtree, error) {
	folder, err := loadFolder(ctx, s.queries, folderID)
	if err != nil {
		return nil, err
	}
	if folder.OwnerID != ownerID {
		return nil, &drive.NotFoundError{Kind: "folder", ID: folderID}
	}

	folders, err := s.queries.GetDescendants(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("listing descendants: %w", err)
	}
	files, err := s.queries.ListFilesInSubtree(ctx, ownerID, folderID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return &drive.Subtree{Folders: folders, Files: files}, nil
}

func (s *SQLDatabase) CopySubtree(ctx context.Context, templateID int64, ownerID string, suffix drive.NameSuffixer) (*queries.Folder, error) {
	var root queries.Folder
	err := s.inTx(ctx, "copy subtree", func(q *queries.Queries) error {
		// Shallowest first: every parent is copied before its children.
		rows, err := q.GetDescendants(ctx, templateID)
		if err != nil {
			return fmt.Errorf("listing template folders: %w", err)
		}
		if len(rows) == 0 {
			return &drive.NotFoundError{Kind: "folder", ID: templateID}
		}

		name, err := freeRootName(ctx, q, ownerID, rows[0].Name, suffix)
		if err != nil {
			return err
		}

		createdAt := s.now()
		translated := make(map[int64]int64, len(rows))

		root, err = insertFolder(ctx, q, name, ownerID, sql.NullInt64{}, createdAt)
		if err != nil {
			return err
		}
		translated[rows[0].FolderID] = root.ID

		for _, row := range rows[1:] {
			parentID, ok := translated[row.ParentID.Int64]
			if !row.ParentID.Valid || !ok {
				return fmt.Errorf("template folder %d: parent %d was not copied", row.FolderID, row.ParentID.Int64)
			}
			f, err := insertFolder(ctx, q, row.Name, ownerID, sql.NullInt64{Int64: parentID, Valid: true}, createdAt)
			if err != nil {
				return err
			}
			translated[row.FolderID] = f.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &root, nil
}

// insertFolder writes the folder row, its reflexive closure row and, under a
// parent, one inherited row per ancestor of the parent.
func insertFolder(ctx context.Context, q *queries.Queries, name, ownerID string, parent sql.NullInt64, createdAt time.Time) (queries.Folder, error) {
	f, err := q.InsertFolder(ctx, queries.InsertFolderParams{
		Name:      name,
		OwnerID:   ownerID,
		ParentID:  parent,
		CreatedAt: createdAt,
	})
	if err != nil {
		return queries.Folder{}, fmt.Errorf("inserting folder: %w", err)
	}
	if err := q.InsertSelfEdge(ctx, f.ID); err != nil {
		return queries.Folder{}, fmt.Errorf("inserting self edge: %w", err)
	}
	if parent.Valid {
		if err := q.InsertInheritedEdges(ctx, f.ID, parent.Int64); err != nil {
			return queries.Folder{}, fmt.Errorf("inserting inherited edges: %w", err)
		}
	}
	return f, nil
}

// relink cuts the subtree rooted at folderID from its ancestors and, when
// newParent is set, attaches it below newParent with internal depths kept.
func relink(ctx context.Context, q *queries.Queries, folderID int64, newParent sql.NullInt64) error {
	if err := q.DetachSubtree(ctx, folderID); err != nil {
		return fmt.Errorf("detaching subtree: %w", err)
	}
	if newParent.Valid {
		if err := q.AttachSubtree(ctx, folderID, newParent.Int64); err != nil {
			return fmt.Errorf("attaching subtree: %w", err)
		}
	}
	if err := q.UpdateFolderParent(ctx, newParent, folderID); err != nil {
		return fmt.Errorf("updating parent: %w", err)
	}
	return nil
}

func loadFolder(ctx context.Context, q *queries.Queries, id int64) (queries.Folder, error) {
	f, err := q.GetFolder(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return queries.Folder{}, &drive.NotFoundError{Kind: "folder", ID: id}
		}
		return queries.Folder{}, fmt.Errorf("loading folder %d: %w", id, err)
	}
	return f, nil
}

// checkRootName fails with *drive.NameCollisionError when another top-level
// folder of ownerID (other than exceptID) is called name.
func checkRootName(ctx context.Context, q *queries.Queries, ownerID, name string, exceptID int64) error {
	existing, err := q.GetRootFolderByName(ctx, ownerID, name)
	if err != nil {
		if isNoRows(err) {
			return nil
		}
		return fmt.Errorf("checking top-level name: %w", err)
	}
	if existing.ID == exceptID {
		return nil
	}
	return &drive.NameCollisionError{OwnerID: ownerID, Name: name, ExistingID: existing.ID}
}

// freeRootName returns name, or name with a random suffix when ownerID
// already has a top-level folder called name.
func freeRootName(ctx context.Context, q *queries.Queries, ownerID, name string, suffix drive.NameSuffixer) (string, error) {
	candidate := name
	for attempt := 0; ; attempt++ {
		err := checkRootName(ctx, q, ownerID, candidate, 0)
		if err == nil {
			return candidate, nil
		}
		if suffix == nil || attempt == maxSuffixAttempts {
			return "", err
		}
		if !errors.Is(err, drive.ErrNameCollision) {
			return "", err
		}

		sfx, err := suffix()
		if err != nil {
			return "", fmt.Errorf("generating name suffix: %w", err)
		}
		candidate = name + " " + sfx
	}
}

func folderPtrs(items []queries.Folder) []*queries.Folder {
	result := make([]*queries.Folder, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result
}
