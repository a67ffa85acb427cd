package database

import (
	"context"
	"database/sql"
	"fmt"

	"drive-go/internal/database/queries"
	"drive-go/internal/drive"
)

// File operations

func (s *SQLDatabase) CreateFile(ctx context.Context, nf drive.NewFile) (*queries.File, error) {
	var file queries.File
	err := s.inTx(ctx, "create file", func(q *queries.Queries) error {
		var folderID sql.NullInt64
		if nf.FolderID != nil {
			folder, err := loadFolder(ctx, q, *nf.FolderID)
			if err != nil {
				return err
			}
			if folder.OwnerID != nf.OwnerID {
				return &drive.NotFoundError{Kind: "folder", ID: *nf.FolderID}
			}
			folderID = sql.NullInt64{Int64: folder.ID, Valid: true}
		}

		createdAt := s.now()
		f, err := q.InsertFile(ctx, queries.InsertFileParams{
			Name:      nf.Name,
			OwnerID:   nf.OwnerID,
			FolderID:  folderID,
			Type:      nf.Type,
			Size:      nf.Size,
			CreatedAt: createdAt,
		})
		if err != nil {
			return fmt.Errorf("inserting file: %w", err)
		}

		_, err = q.InsertHistory(ctx, queries.InsertHistoryParams{
			FileID:    f.ID,
			S3Key:     nf.BlobKey,
			Size:      nf.Size,
			CreatedAt: createdAt,
		})
		if err != nil {
			return fmt.Errorf("inserting history: %w", err)
		}

		file = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *SQLDatabase) AddFileVersion(ctx context.Context, fileID int64, blobKey string, size int64) (*queries.History, error) {
	var entry queries.History
	err := s.inTx(ctx, "add file version", func(q *queries.Queries) error {
		if _, err := loadFile(ctx, q, fileID); err != nil {
			return err
		}

		h, err := q.InsertHistory(ctx, queries.InsertHistoryParams{
			FileID:    fileID,
			S3Key:     blobKey,
			Size:      size,
			CreatedAt: s.now(),
		})
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("blob key %s is already recorded: %w", blobKey, err)
			}
			return fmt.Errorf("inserting history: %w", err)
		}

		if err := q.UpdateFileSize(ctx, size, fileID); err != nil {
			return fmt.Errorf("updating file size: %w", err)
		}

		entry = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *SQLDatabase) GetFile(ctx context.Context, fileID int64) (*queries.File, error) {
	f, err := loadFile(ctx, s.queries, fileID)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *SQLDatabase) ListRootFiles(ctx context.Context, ownerID string) ([]*queries.File, error) {
	items, err := s.queries.ListRootFiles(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing root files: %w", err)
	}
	result := make([]*queries.File, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result, nil
}

func (s *SQLDatabase) FindFileHistory(ctx context.Context, fileID int64) ([]*queries.History, error) {
	if _, err := loadFile(ctx, s.queries, fileID); err != nil {
		return nil, err
	}
	items, err := s.queries.ListHistoryByFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	result := make([]*queries.History, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result, nil
}

func (s *SQLDatabase) RenameFile(ctx context.Context, fileID int64, name string) error {
	n, err := s.queries.UpdateFileName(ctx, name, fileID)
	if err != nil {
		return fmt.Errorf("renaming file: %w", err)
	}
	if n == 0 {
		return &drive.NotFoundError{Kind: "file", ID: fileID}
	}
	return nil
}

func (s *SQLDatabase) MoveFile(ctx context.Context, fileID int64, folderID *int64) error {
	return s.inTx(ctx, "move file", func(q *queries.Queries) error {
		file, err := loadFile(ctx, q, fileID)
		if err != nil {
			return err
		}

		var target sql.NullInt64
		if folderID != nil {
			folder, err := loadFolder(ctx, q, *folderID)
			if err != nil {
				return err
			}
			if folder.OwnerID != file.OwnerID {
				return &drive.NotFoundError{Kind: "folder", ID: *folderID}
			}
			target = sql.NullInt64{Int64: folder.ID, Valid: true}
		}

		if err := q.UpdateFileFolder(ctx, target, fileID); err != nil {
			return fmt.Errorf("moving file: %w", err)
		}
		return nil
	})
}

func (s *SQLDatabase) DeleteFile(ctx context.Context, fileID int64) ([]string, error) {
	var blobKeys []string
	err := s.inTx(ctx, "delete file", func(q *queries.Queries) error {
		if _, err := loadFile(ctx, q, fileID); err != nil {
			return err
		}
		keys, err := deleteFileRows(ctx, q, fileID)
		if err != nil {
			return err
		}
		blobKeys = keys
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blobKeys, nil
}

// deleteFileRows removes a file and its history, returning the blob key of
// every version so the caller can remove the contents after commit.
func deleteFileRows(ctx context.Context, q *queries.Queries, fileID int64) ([]string, error) {
	history, err := q.ListHistoryByFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing history of file %d: %w", fileID, err)
	}
	keys := make([]string, len(history))
	for i, h := range history {
		keys[i] = h.S3Key
	}

	if err := q.DeleteHistoryByFile(ctx, fileID); err != nil {
		return nil, fmt.Errorf("deleting history of file %d: %w", fileID, err)
	}
	if err := q.DeleteFile(ctx, fileID); err != nil {
		return nil, fmt.Errorf("deleting file %d: %w", fileID, err)
	}
	return keys, nil
}

func loadFile(ctx context.Context, q *queries.Queries, id int64) (queries.File, error) {
	f, err := q.GetFile(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return queries.File{}, &drive.NotFoundError{Kind: "file", ID: id}
		}
		return queries.File{}, fmt.Errorf("loading file %d: %w", id, err)
	}
	return f, nil
}
