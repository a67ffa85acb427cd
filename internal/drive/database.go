package drive

import (
	"context"

	"drive-go/internal/database/queries"
)

// Subtree is the flat listing of a folder and everything below it.
// Folders are ordered shallowest first, the root at depth 0.
type Subtree struct {
	Folders []queries.ClosureRow
	Files   []queries.File
}

// NewFile describes a file and its first stored version.
type NewFile struct {
	Name     string
	OwnerID  string
	FolderID *int64
	Type     string
	Size     int64
	BlobKey  string
}

// ClosureViolation is one inconsistency found by Database.VerifyClosure.
type ClosureViolation struct {
	FolderID int64
	Problem  string
}

// NameSuffixer returns a short random string appended to a template root
// whose name is already taken by the target owner.
type NameSuffixer func() (string, error)

// Database provides metadata storage for folders, their closure table, files
// and file versions. Every mutating method runs in exactly one transaction
// and either applies fully or not at all.
//
// Lookups that miss return a *NotFoundError unless documented otherwise.
type Database interface {
	// Folder hierarchy

	// CreateFolder inserts a folder, its reflexive closure row and, for a
	// child, the rows inherited from parentID. A nil parentID creates a
	// top-level folder, which must not collide with another top-level name of
	// the same owner.
	CreateFolder(ctx context.Context, name string, parentID *int64, ownerID string) (*queries.Folder, error)

	// MoveFolder re-attaches folderID and its subtree under newParentID.
	// Returns a *CycleError when newParentID is folderID or lies below it.
	MoveFolder(ctx context.Context, folderID, newParentID int64) error

	// MoveFolderToRoot detaches folderID and its subtree from its ancestors.
	MoveFolderToRoot(ctx context.Context, folderID int64) error

	// DeleteFolder removes folderID and its subtree. When deleteFiles is false
	// the files stored in the subtree are moved to the owner's top level;
	// otherwise they are deleted along with their history and the keys of
	// their stored versions are returned.
	DeleteFolder(ctx context.Context, folderID int64, deleteFiles bool) ([]string, error)

	// RenameFolder changes a folder's name.
	RenameFolder(ctx context.Context, folderID int64, name string) error

	GetFolder(ctx context.Context, folderID int64) (*queries.Folder, error)

	// FindRootFolderByName returns nil, nil when the owner has no such folder.
	FindRootFolderByName(ctx context.Context, ownerID, name string) (*queries.Folder, error)

	ListRootFolders(ctx context.Context, ownerID string) ([]*queries.Folder, error)
	ListChildFolders(ctx context.Context, parentID int64) ([]*queries.Folder, error)

	// GetAncestors returns the proper ancestors of folderID ordered by
	// descending depth, so the top-level ancestor comes first.
	GetAncestors(ctx context.Context, folderID int64) ([]queries.ClosureRow, error)

	// GetSubtreeFlat lists the subtree rooted at folderID together with the
	// owner's files stored in it.
	GetSubtreeFlat(ctx context.Context, folderID int64, ownerID string) (*Subtree, error)

	// CopySubtree recreates the folder structure rooted at templateID for
	// ownerID with fresh ids. A top-level name collision is resolved by
	// appending " " + suffix() to the root name.
	CopySubtree(ctx context.Context, templateID int64, ownerID string, suffix NameSuffixer) (*queries.Folder, error)

	// VerifyClosure compares the closure table with the parent pointers.
	VerifyClosure(ctx context.Context) ([]ClosureViolation, error)

	// Files

	// CreateFile inserts a file and its first history row.
	CreateFile(ctx context.Context, f NewFile) (*queries.File, error)

	// AddFileVersion appends a history row and updates the file's size.
	AddFileVersion(ctx context.Context, fileID int64, blobKey string, size int64) (*queries.History, error)

	GetFile(ctx context.Context, fileID int64) (*queries.File, error)
	ListRootFiles(ctx context.Context, ownerID string) ([]*queries.File, error)

	// FindFileHistory returns every version of a file, newest first.
	FindFileHistory(ctx context.Context, fileID int64) ([]*queries.History, error)

	RenameFile(ctx context.Context, fileID int64, name string) error

	// MoveFile re-associates a file with folderID, or the top level when nil.
	MoveFile(ctx context.Context, fileID int64, folderID *int64) error

	// DeleteFile removes a file and its history, returning the blob keys of
	// every version it had.
	DeleteFile(ctx context.Context, fileID int64) ([]string, error)

	// Operations

	CreateOperation(ctx context.Context, operation, parameters string) (*queries.Operation, error)
	FinishOperation(ctx context.Context, id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(ctx context.Context, limit int) ([]*queries.Operation, error)

	Close() error
}
