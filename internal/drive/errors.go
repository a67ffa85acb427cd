package drive

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. The typed errors below match them through their
// Is methods, so callers can test the kind without a type assertion.
var (
	ErrNotFound      = errors.New("not found")
	ErrCycle         = errors.New("move would create a cycle")
	ErrNameCollision = errors.New("name already in use")
)

// NotFoundError reports a referenced folder, file or history row that does
// not exist (or is not visible to the requesting owner).
type NotFoundError struct {
	Kind string // "folder", "file", "version"
	ID   any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// CycleError reports a move of a folder under itself or one of its descendants.
type CycleError struct {
	FolderID    int64
	NewParentID int64
}

func (e *CycleError) Error() string {
	if e.FolderID == e.NewParentID {
		return fmt.Sprintf("cannot move folder %d into itself", e.FolderID)
	}
	return fmt.Sprintf("cannot move folder %d under its descendant %d", e.FolderID, e.NewParentID)
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// NameCollisionError reports a top-level folder name already taken by the owner.
type NameCollisionError struct {
	OwnerID    string
	Name       string
	ExistingID int64
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("owner %s already has a top-level folder named %q (id %d)", e.OwnerID, e.Name, e.ExistingID)
}

func (e *NameCollisionError) Is(target error) bool { return target == ErrNameCollision }

// TransactionFailure reports that the storage transaction for Op could not be
// started or committed. Nothing from the operation was applied.
type TransactionFailure struct {
	Op  string
	Err error
}

func (e *TransactionFailure) Error() string {
	return fmt.Sprintf("%s: transaction failed: %v", e.Op, e.Err)
}

func (e *TransactionFailure) Unwrap() error { return e.Err }

// ValidationError reports caller input rejected before touching storage.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
