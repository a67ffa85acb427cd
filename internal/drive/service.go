package drive

import (
	"context"
	"fmt"

	"drive-go/internal/database/queries"
)

// Options holds caller policy that is not part of the folder engine itself.
type Options struct {
	// DeleteFilesWithFolder removes the files stored in a deleted subtree
	// together with their blobs. When false they move to the owner's top level.
	DeleteFilesWithFolder bool

	// Suffix generates the string appended to a template root whose name is
	// already taken. Defaults to RandomSuffix.
	Suffix NameSuffixer
}

// DriveService is the orchestration layer the CLI (or any transport) calls.
// It validates input, delegates hierarchy mutations to the Database, moves
// file contents through the BlobStore and logs every successful change.
type DriveService struct {
	database  Database
	blobs     BlobStore
	encryptor Encryptor
	fsmgr     FilesystemManager
	logger    Logger
	clock     Clock
	idgen     IDGenerator
	opts      Options
}

// NewDriveService creates a DriveService with the provided dependencies.
func NewDriveService(database Database, blobs BlobStore, encryptor Encryptor, fsmgr FilesystemManager, logger Logger, clock Clock, idgen IDGenerator, opts Options) *DriveService {
	if opts.Suffix == nil {
		opts.Suffix = RandomSuffix
	}
	return &DriveService{
		database:  database,
		blobs:     blobs,
		encryptor: encryptor,
		fsmgr:     fsmgr,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		opts:      opts,
	}
}

// CreateFolder creates a folder under parentID, or at the owner's top level
// when parentID is nil, and returns its id.
func (s *DriveService) CreateFolder(ctx context.Context, name string, parentID *int64, ownerID string) (int64, error) {
	if err := ValidateFolderName(name); err != nil {
		return 0, err
	}
	if err := ValidateOwnerID(ownerID); err != nil {
		return 0, err
	}

	folder, err := s.database.CreateFolder(ctx, name, parentID, ownerID)
	if err != nil {
		return 0, fmt.Errorf("creating folder: %w", err)
	}

	s.logger.Info("folder created", "folder_id", folder.ID, "name", name, "owner_id", ownerID)
	return folder.ID, nil
}

// MoveFolder re-parents folderID and its subtree under newParentID.
func (s *DriveService) MoveFolder(ctx context.Context, folderID, newParentID int64) error {
	if err := s.database.MoveFolder(ctx, folderID, newParentID); err != nil {
		return fmt.Errorf("moving folder: %w", err)
	}

	s.logger.Info("folder moved", "folder_id", folderID, "new_parent_id", newParentID)
	return nil
}

// MoveFolderToRoot makes folderID a top-level folder of its owner.
func (s *DriveService) MoveFolderToRoot(ctx context.Context, folderID int64) error {
	if err := s.database.MoveFolderToRoot(ctx, folderID); err != nil {
		return fmt.Errorf("moving folder to top level: %w", err)
	}

	s.logger.Info("folder moved to top level", "folder_id", folderID)
	return nil
}

// DeleteFolder removes folderID and everything below it. Files in the
// subtree follow Options.DeleteFilesWithFolder. Blob removal happens after
// the transaction commits and is best-effort: a blob that cannot be deleted
// is logged and left behind.
func (s *DriveService) DeleteFolder(ctx context.Context, folderID int64) error {
	keys, err := s.database.DeleteFolder(ctx, folderID, s.opts.DeleteFilesWithFolder)
	if err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}

	s.removeBlobs(ctx, keys)
	s.logger.Info("folder deleted", "folder_id", folderID, "blobs_removed", len(keys))
	return nil
}

// RenameFolder changes a folder's name.
func (s *DriveService) RenameFolder(ctx context.Context, folderID int64, name string) error {
	if err := ValidateFolderName(name); err != nil {
		return err
	}

	if err := s.database.RenameFolder(ctx, folderID, name); err != nil {
		return fmt.Errorf("renaming folder: %w", err)
	}

	s.logger.Info("folder renamed", "folder_id", folderID, "name", name)
	return nil
}

// GetFolder returns a single folder.
func (s *DriveService) GetFolder(ctx context.Context, folderID int64) (*queries.Folder, error) {
	return s.database.GetFolder(ctx, folderID)
}

// GetAncestors returns the proper ancestors of folderID, top-level first.
func (s *DriveService) GetAncestors(ctx context.Context, folderID int64) ([]queries.ClosureRow, error) {
	ancestors, err := s.database.GetAncestors(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("getting ancestors: %w", err)
	}
	return ancestors, nil
}

// GetPath renders the full path of a single folder.
func (s *DriveService) GetPath(ctx context.Context, folderID int64) (string, error) {
	folder, err := s.database.GetFolder(ctx, folderID)
	if err != nil {
		return "", fmt.Errorf("getting folder: %w", err)
	}
	ancestors, err := s.GetAncestors(ctx, folderID)
	if err != nil {
		return "", err
	}
	return JoinAncestors(ancestors, folder.Name), nil
}

// GetSubtreeFlat lists folderID's subtree and the owner's files in it.
func (s *DriveService) GetSubtreeFlat(ctx context.Context, folderID int64, ownerID string) (*Subtree, error) {
	subtree, err := s.database.GetSubtreeFlat(ctx, folderID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing subtree: %w", err)
	}
	return subtree, nil
}

// GetTree returns folderID's subtree assembled into nested nodes.
func (s *DriveService) GetTree(ctx context.Context, folderID int64, ownerID string) (*TreeNode, error) {
	subtree, err := s.GetSubtreeFlat(ctx, folderID, ownerID)
	if err != nil {
		return nil, err
	}
	return AssembleTree(subtree.Folders, subtree.Files), nil
}

// GetPaths maps every folder in folderID's subtree to its path relative to
// (and including) folderID.
func (s *DriveService) GetPaths(ctx context.Context, folderID int64, ownerID string) (map[int64]string, error) {
	subtree, err := s.GetSubtreeFlat(ctx, folderID, ownerID)
	if err != nil {
		return nil, err
	}
	return ResolvePaths(subtree.Folders), nil
}

// Listing is the direct content of one folder, or of an owner's top level.
type Listing struct {
	Folder  *queries.Folder // nil for the top level
	Folders []*queries.Folder
	Files   []queries.File
}

// List returns the folders and files directly inside folderID, or at the
// owner's top level when folderID is nil. A folder of another owner is
// reported as not found.
func (s *DriveService) List(ctx context.Context, ownerID string, folderID *int64) (*Listing, error) {
	if folderID == nil {
		folders, err := s.database.ListRootFolders(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("listing top-level folders: %w", err)
		}
		files, err := s.database.ListRootFiles(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("listing top-level files: %w", err)
		}
		listing := &Listing{Folders: folders}
		for _, f := range files {
			listing.Files = append(listing.Files, *f)
		}
		return listing, nil
	}

	folder, err := s.database.GetFolder(ctx, *folderID)
	if err != nil {
		return nil, fmt.Errorf("getting folder: %w", err)
	}
	if folder.OwnerID != ownerID {
		return nil, &NotFoundError{Kind: "folder", ID: *folderID}
	}

	children, err := s.database.ListChildFolders(ctx, *folderID)
	if err != nil {
		return nil, fmt.Errorf("listing child folders: %w", err)
	}
	subtree, err := s.GetSubtreeFlat(ctx, *folderID, ownerID)
	if err != nil {
		return nil, err
	}

	listing := &Listing{Folder: folder, Folders: children}
	for _, f := range subtree.Files {
		if f.FolderID.Valid && f.FolderID.Int64 == *folderID {
			listing.Files = append(listing.Files, f)
		}
	}
	return listing, nil
}

// Fsck reports every closure-table inconsistency in the database.
func (s *DriveService) Fsck(ctx context.Context) ([]ClosureViolation, error) {
	violations, err := s.database.VerifyClosure(ctx)
	if err != nil {
		return nil, fmt.Errorf("verifying closure table: %w", err)
	}
	if len(violations) > 0 {
		s.logger.Warn("closure table inconsistent", "violations", len(violations))
	}
	return violations, nil
}

// removeBlobs deletes blobs whose metadata is already gone. Failures leave
// an orphaned blob, which is logged and otherwise harmless.
func (s *DriveService) removeBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("blob not removed", "key", key, "error", err)
		}
	}
}
