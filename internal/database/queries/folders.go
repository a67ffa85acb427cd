package queries

import (
	"context"
	"database/sql"
	"time"
)

const folderColumns = `id, name, owner_id, parent_id, created_at`

func scanFolder(row interface{ Scan(...interface{}) error }) (Folder, error) {
	var f Folder
	err := row.Scan(&f.ID, &f.Name, &f.OwnerID, &f.ParentID, &f.CreatedAt)
	return f, err
}

type InsertFolderParams struct {
	Name      string
	OwnerID   string
	ParentID  sql.NullInt64
	CreatedAt time.Time
}

const insertFolder = `
INSERT INTO folders (name, owner_id, parent_id, created_at)
VALUES (?, ?, ?, ?)
RETURNING id`

func (q *Queries) InsertFolder(ctx context.Context, arg InsertFolderParams) (Folder, error) {
	f := Folder{
		Name:      arg.Name,
		OwnerID:   arg.OwnerID,
		ParentID:  arg.ParentID,
		CreatedAt: arg.CreatedAt,
	}
	err := q.queryRow(ctx, insertFolder, arg.Name, arg.OwnerID, arg.ParentID, arg.CreatedAt).Scan(&f.ID)
	return f, err
}

const getFolder = `SELECT ` + folderColumns + ` FROM folders WHERE id = ?`

func (q *Queries) GetFolder(ctx context.Context, id int64) (Folder, error) {
	return scanFolder(q.queryRow(ctx, getFolder, id))
}

const getRootFolderByName = `
SELECT ` + folderColumns + `
FROM folders
WHERE owner_id = ? AND parent_id IS NULL AND name = ?
ORDER BY id
LIMIT 1`

func (q *Queries) GetRootFolderByName(ctx context.Context, ownerID, name string) (Folder, error) {
	return scanFolder(q.queryRow(ctx, getRootFolderByName, ownerID, name))
}

const listRootFolders = `
SELECT ` + folderColumns + `
FROM folders
WHERE owner_id = ? AND parent_id IS NULL
ORDER BY name, id`

func (q *Queries) ListRootFolders(ctx context.Context, ownerID string) ([]Folder, error) {
	return q.listFolders(ctx, listRootFolders, ownerID)
}

const listChildFolders = `
SELECT ` + folderColumns + `
FROM folders
WHERE parent_id = ?
ORDER BY name, id`

func (q *Queries) ListChildFolders(ctx context.Context, parentID int64) ([]Folder, error) {
	return q.listFolders(ctx, listChildFolders, parentID)
}

const listAllFolders = `SELECT ` + folderColumns + ` FROM folders ORDER BY id`

// ListAllFolders returns every folder of every owner. Used by consistency checks.
func (q *Queries) ListAllFolders(ctx context.Context) ([]Folder, error) {
	return q.listFolders(ctx, listAllFolders)
}

func (q *Queries) listFolders(ctx context.Context, query string, args ...interface{}) ([]Folder, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Folder
	for rows.Next() {
		f, err := scanFolder(rows)
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

const updateFolderParent = `UPDATE folders SET parent_id = ? WHERE id = ?`

func (q *Queries) UpdateFolderParent(ctx context.Context, parentID sql.NullInt64, id int64) error {
	_, err := q.exec(ctx, updateFolderParent, parentID, id)
	return err
}

const updateFolderName = `UPDATE folders SET name = ? WHERE id = ?`

// UpdateFolderName returns the number of rows changed so callers can detect
// a missing folder without a second query.
func (q *Queries) UpdateFolderName(ctx context.Context, name string, id int64) (int64, error) {
	res, err := q.exec(ctx, updateFolderName, name, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteFolder = `DELETE FROM folders WHERE id = ?`

func (q *Queries) DeleteFolder(ctx context.Context, id int64) error {
	_, err := q.exec(ctx, deleteFolder, id)
	return err
}
