package queries

import (
	"context"
	"database/sql"
	"time"
)

const fileColumns = `id, name, owner_id, folder_id, type, size, created_at`

func scanFile(row interface{ Scan(...interface{}) error }) (File, error) {
	var f File
	err := row.Scan(&f.ID, &f.Name, &f.OwnerID, &f.FolderID, &f.Type, &f.Size, &f.CreatedAt)
	return f, err
}

type InsertFileParams struct {
	Name      string
	OwnerID   string
	FolderID  sql.NullInt64
	Type      string
	Size      int64
	CreatedAt time.Time
}

const insertFile = `
INSERT INTO files (name, owner_id, folder_id, type, size, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) InsertFile(ctx context.Context, arg InsertFileParams) (File, error) {
	f := File{
		Name:      arg.Name,
		OwnerID:   arg.OwnerID,
		FolderID:  arg.FolderID,
		Type:      arg.Type,
		Size:      arg.Size,
		CreatedAt: arg.CreatedAt,
	}
	err := q.queryRow(ctx, insertFile,
		arg.Name, arg.OwnerID, arg.FolderID, arg.Type, arg.Size, arg.CreatedAt,
	).Scan(&f.ID)
	return f, err
}

const getFile = `SELECT ` + fileColumns + ` FROM files WHERE id = ?`

func (q *Queries) GetFile(ctx context.Context, id int64) (File, error) {
	return scanFile(q.queryRow(ctx, getFile, id))
}

const listFilesInSubtree = `
SELECT ` + fileColumns + `
FROM files
WHERE owner_id = ?
  AND folder_id IN (SELECT descendant FROM folder_closure WHERE ancestor = ?)
ORDER BY folder_id, name, id`

// ListFilesInSubtree returns the owner's files stored anywhere below (and in)
// the folder rootID.
func (q *Queries) ListFilesInSubtree(ctx context.Context, ownerID string, rootID int64) ([]File, error) {
	return q.listFiles(ctx, listFilesInSubtree, ownerID, rootID)
}

const listFilesUnderFolder = `
SELECT ` + fileColumns + `
FROM files
WHERE folder_id IN (SELECT descendant FROM folder_closure WHERE ancestor = ?)
ORDER BY id`

// ListFilesUnderFolder returns every file stored in the subtree rooted at
// rootID regardless of owner.
func (q *Queries) ListFilesUnderFolder(ctx context.Context, rootID int64) ([]File, error) {
	return q.listFiles(ctx, listFilesUnderFolder, rootID)
}

const listRootFiles = `
SELECT ` + fileColumns + `
FROM files
WHERE owner_id = ? AND folder_id IS NULL
ORDER BY name, id`

func (q *Queries) ListRootFiles(ctx context.Context, ownerID string) ([]File, error) {
	return q.listFiles(ctx, listRootFiles, ownerID)
}

func (q *Queries) listFiles(ctx context.Context, query string, args ...interface{}) ([]File, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateFileName = `UPDATE files SET name = ? WHERE id = ?`

func (q *Queries) UpdateFileName(ctx context.Context, name string, id int64) (int64, error) {
	res, err := q.exec(ctx, updateFileName, name, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateFileFolder = `UPDATE files SET folder_id = ? WHERE id = ?`

func (q *Queries) UpdateFileFolder(ctx context.Context, folderID sql.NullInt64, id int64) error {
	_, err := q.exec(ctx, updateFileFolder, folderID, id)
	return err
}

const updateFileSize = `UPDATE files SET size = ? WHERE id = ?`

func (q *Queries) UpdateFileSize(ctx context.Context, size int64, id int64) error {
	_, err := q.exec(ctx, updateFileSize, size, id)
	return err
}

const detachFilesInFolders = `UPDATE files SET folder_id = NULL WHERE folder_id IN (`

// DetachFilesInFolders moves every file stored in one of folderIDs to the
// owner's top level.
func (q *Queries) DetachFilesInFolders(ctx context.Context, folderIDs []int64) error {
	for start := 0; start < len(folderIDs); start += maxBatch {
		end := min(start+maxBatch, len(folderIDs))
		in, args := inClause(folderIDs[start:end])
		if _, err := q.exec(ctx, detachFilesInFolders+in+`)`, args...); err != nil {
			return err
		}
	}
	return nil
}

const deleteFile = `DELETE FROM files WHERE id = ?`

func (q *Queries) DeleteFile(ctx context.Context, id int64) error {
	_, err := q.exec(ctx, deleteFile, id)
	return err
}

// History

const historyColumns = `id, file_id, s3_key, size, created_at`

func scanHistory(row interface{ Scan(...interface{}) error }) (History, error) {
	var h History
	err := row.Scan(&h.ID, &h.FileID, &h.S3Key, &h.Size, &h.CreatedAt)
	return h, err
}

type InsertHistoryParams struct {
	FileID    int64
	S3Key     string
	Size      int64
	CreatedAt time.Time
}

const insertHistory = `
INSERT INTO history (file_id, s3_key, size, created_at)
VALUES (?, ?, ?, ?)
RETURNING id`

func (q *Queries) InsertHistory(ctx context.Context, arg InsertHistoryParams) (History, error) {
	h := History{
		FileID:    arg.FileID,
		S3Key:     arg.S3Key,
		Size:      arg.Size,
		CreatedAt: arg.CreatedAt,
	}
	err := q.queryRow(ctx, insertHistory, arg.FileID, arg.S3Key, arg.Size, arg.CreatedAt).Scan(&h.ID)
	return h, err
}

const listHistoryByFile = `
SELECT ` + historyColumns + `
FROM history
WHERE file_id = ?
ORDER BY created_at DESC, id DESC`

// ListHistoryByFile returns every version of a file, newest first.
func (q *Queries) ListHistoryByFile(ctx context.Context, fileID int64) ([]History, error) {
	rows, err := q.query(ctx, listHistoryByFile, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []History
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCurrentHistory = `
SELECT ` + historyColumns + `
FROM history
WHERE file_id = ?
ORDER BY created_at DESC, id DESC
LIMIT 1`

// GetCurrentHistory returns the version with the latest created_at.
func (q *Queries) GetCurrentHistory(ctx context.Context, fileID int64) (History, error) {
	return scanHistory(q.queryRow(ctx, getCurrentHistory, fileID))
}

const getHistoryByKey = `SELECT ` + historyColumns + ` FROM history WHERE file_id = ? AND s3_key = ?`

func (q *Queries) GetHistoryByKey(ctx context.Context, fileID int64, key string) (History, error) {
	return scanHistory(q.queryRow(ctx, getHistoryByKey, fileID, key))
}

const deleteHistoryByFile = `DELETE FROM history WHERE file_id = ?`

func (q *Queries) DeleteHistoryByFile(ctx context.Context, fileID int64) error {
	_, err := q.exec(ctx, deleteHistoryByFile, fileID)
	return err
}
