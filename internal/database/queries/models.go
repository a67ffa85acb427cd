package queries

import (
	"database/sql"
	"time"
)

// Folder is a row of the folders table. ParentID is NULL for a root folder.
type Folder struct {
	ID        int64
	Name      string
	OwnerID   string
	ParentID  sql.NullInt64
	CreatedAt time.Time
}

// IsRoot reports whether the folder sits at the top level of its owner.
func (f *Folder) IsRoot() bool {
	return !f.ParentID.Valid
}

// FolderClosure is a row of the folder_closure table.
type FolderClosure struct {
	Ancestor   int64
	Descendant int64
	Depth      int64
}

// ClosureRow is a closure edge joined with the folder it points at.
// For ancestor listings FolderID is the ancestor; for descendant listings it
// is the descendant. Depth is always measured from the queried folder.
type ClosureRow struct {
	FolderID int64
	Name     string
	ParentID sql.NullInt64
	Depth    int64
}

// File is a row of the files table. FolderID is NULL for a root-level file.
type File struct {
	ID        int64
	Name      string
	OwnerID   string
	FolderID  sql.NullInt64
	Type      string
	Size      int64
	CreatedAt time.Time
}

// History is one stored version of a file.
type History struct {
	ID        int64
	FileID    int64
	S3Key     string
	Size      int64
	CreatedAt time.Time
}

// Operation records a mutating CLI invocation.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string
}
