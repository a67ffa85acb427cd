package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"time"

	"drive-go/internal/blobstore"
	"drive-go/internal/config"
	"drive-go/internal/database"
	"drive-go/internal/database/queries"
	"drive-go/internal/drive"
	"drive-go/internal/encryption"
	"drive-go/internal/fs"
)

// metadataKey is where a snapshot of the SQLite metadata database is stored
// after every mutating operation.
func metadataKey(instanceID string) string {
	return path.Join("metadata", instanceID, "drive.db")
}

// DriveApp is the application layer between the CLI and DriveService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw CLI values, and manages the DB lifecycle on Close.
type DriveApp struct {
	cfg       *config.Config
	db        *database.SQLDatabase
	blobs     drive.BlobStore
	fsmgr     drive.FilesystemManager
	encryptor drive.Encryptor
	service   *drive.DriveService
	op        *Operation
	logFile   *os.File
}

// NewDriveApp creates a fully wired DriveApp from the given config.
// operation and parameters describe the CLI command being run
// (e.g. "folder create", "Docs"). The caller must call Close when done.
func NewDriveApp(ctx context.Context, cfg *config.Config, operation, parameters string) (*DriveApp, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	blobs, err := blobstore.NewBlobStoreFromConfig(ctx, cfg.BlobStore)
	if err != nil {
		return nil, fmt.Errorf("creating blob store: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(ctx, cfg.Database, cfg.InstanceID, drive.RealClock{})
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	// An in-memory database starts empty every run.
	if cfg.Database.Type == "memory" {
		err = db.Migrate()
	} else {
		err = db.CheckMigrations()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	fsmgr := fs.NewOSFilesystemManager(cfg.Files.Ignore)
	svc := drive.NewDriveService(db, blobs, enc, fsmgr, &slogAdapter{l: logger}, drive.RealClock{}, drive.UUIDGenerator{}, drive.Options{
		DeleteFilesWithFolder: cfg.Files.OnFolderDelete == config.OnFolderDeleteDelete,
	})

	return &DriveApp{
		cfg:       cfg,
		db:        db,
		blobs:     blobs,
		fsmgr:     fsmgr,
		encryptor: enc,
		service:   svc,
		op:        NewOperation(operation, parameters),
		logFile:   logFile,
	}, nil
}

// Initialize prepares the storage named by cfg: it applies migrations,
// checks the blob store and, for age encryption, generates the key pair
// protected by passphrase unless it already exists.
func Initialize(ctx context.Context, cfg *config.Config, passphrase string) error {
	db, err := database.NewDatabaseFromConfig(ctx, cfg.Database, cfg.InstanceID, drive.RealClock{})
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	blobs, err := blobstore.NewBlobStoreFromConfig(ctx, cfg.BlobStore)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}
	if err := blobs.ValidateSetup(ctx); err != nil {
		return fmt.Errorf("validating blob store: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc.Enabled() && !enc.IsConfigured() {
		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}
	}
	return nil
}

// EncryptionEnabled reports whether downloads need a passphrase.
func (a *DriveApp) EncryptionEnabled() bool {
	return a.encryptor.Enabled()
}

// persistOperation saves the operation to the database, giving it an
// auto-increment ID. Only DB-mutating commands call it.
func (a *DriveApp) persistOperation(ctx context.Context) error {
	if a.op.Persisted() {
		return nil
	}
	dbOp, err := a.db.CreateOperation(ctx, a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// mutate persists the operation, runs fn and records a failure.
func (a *DriveApp) mutate(ctx context.Context, fn func() error) error {
	if err := a.persistOperation(ctx); err != nil {
		return err
	}
	if err := fn(); err != nil {
		a.op.Fail()
		return err
	}
	return nil
}

// Folders

func (a *DriveApp) CreateFolder(ctx context.Context, name string, parentID *int64, ownerID string) (int64, error) {
	var id int64
	err := a.mutate(ctx, func() error {
		var err error
		id, err = a.service.CreateFolder(ctx, name, parentID, ownerID)
		return err
	})
	return id, err
}

// MoveFolder re-parents folderID under newParentID, or to the owner's top
// level when newParentID is nil.
func (a *DriveApp) MoveFolder(ctx context.Context, folderID int64, newParentID *int64) error {
	return a.mutate(ctx, func() error {
		if newParentID == nil {
			return a.service.MoveFolderToRoot(ctx, folderID)
		}
		return a.service.MoveFolder(ctx, folderID, *newParentID)
	})
}

func (a *DriveApp) DeleteFolder(ctx context.Context, folderID int64) error {
	return a.mutate(ctx, func() error {
		return a.service.DeleteFolder(ctx, folderID)
	})
}

func (a *DriveApp) RenameFolder(ctx context.Context, folderID int64, name string) error {
	return a.mutate(ctx, func() error {
		return a.service.RenameFolder(ctx, folderID, name)
	})
}

func (a *DriveApp) GetAncestors(ctx context.Context, folderID int64) ([]queries.ClosureRow, error) {
	return a.service.GetAncestors(ctx, folderID)
}

func (a *DriveApp) GetTree(ctx context.Context, folderID int64, ownerID string) (*drive.TreeNode, error) {
	return a.service.GetTree(ctx, folderID, ownerID)
}

func (a *DriveApp) GetPaths(ctx context.Context, folderID int64, ownerID string) (map[int64]string, error) {
	return a.service.GetPaths(ctx, folderID, ownerID)
}

func (a *DriveApp) List(ctx context.Context, ownerID string, folderID *int64) (*drive.Listing, error) {
	return a.service.List(ctx, ownerID, folderID)
}

// PropagateTemplate copies a template folder structure to each owner. The
// result is returned even on error so the caller can report which owners
// were committed.
func (a *DriveApp) PropagateTemplate(ctx context.Context, templateID int64, ownerIDs []string) (*drive.PropagationResult, error) {
	var res *drive.PropagationResult
	err := a.mutate(ctx, func() error {
		var err error
		res, err = a.service.PropagateTemplate(ctx, templateID, ownerIDs)
		return err
	})
	return res, err
}

// Files

// UploadPath uploads a local file or directory into folderID.
func (a *DriveApp) UploadPath(ctx context.Context, ownerID string, folderID *int64, rawPath string) ([]*queries.File, error) {
	var files []*queries.File
	err := a.mutate(ctx, func() error {
		var err error
		files, err = a.service.UploadPath(ctx, ownerID, folderID, rawPath)
		return err
	})
	return files, err
}

// UploadStream uploads content of unknown length, such as stdin, as a new
// file. The content is spooled to a temp file first to learn its size.
func (a *DriveApp) UploadStream(ctx context.Context, ownerID string, folderID *int64, name string, r io.Reader) (*queries.File, error) {
	var file *queries.File
	err := a.mutate(ctx, func() error {
		return withSpool(r, func(content io.Reader, size int64) error {
			var err error
			file, err = a.service.UploadFile(ctx, drive.UploadRequest{
				OwnerID:  ownerID,
				FolderID: folderID,
				Name:     name,
				Content:  content,
				Size:     size,
			})
			return err
		})
	})
	return file, err
}

// UploadVersion stores the local file at rawPath as the new current version
// of fileID.
func (a *DriveApp) UploadVersion(ctx context.Context, fileID int64, rawPath string) (*queries.History, error) {
	var h *queries.History
	err := a.mutate(ctx, func() error {
		p, err := a.fsmgr.Resolve(rawPath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		if p.IsDir() {
			return fmt.Errorf("%s is a directory", p.String())
		}
		rc, err := a.fsmgr.Open(p)
		if err != nil {
			return fmt.Errorf("opening %s: %w", p.String(), err)
		}
		defer rc.Close()

		h, err = a.service.UploadVersion(ctx, fileID, rc, p.Info().Size())
		return err
	})
	return h, err
}

// DownloadFile writes a version of fileID to w. passphrase is only used when
// encryption is enabled.
func (a *DriveApp) DownloadFile(ctx context.Context, fileID int64, versionKey string, w io.Writer, passphrase string) error {
	var dc drive.DecryptionContext
	if a.encryptor.Enabled() {
		var err error
		dc, err = a.encryptor.Unlock(passphrase)
		if err != nil {
			return fmt.Errorf("unlocking encryption key: %w", err)
		}
	}
	return a.service.DownloadFile(ctx, fileID, versionKey, w, dc)
}

func (a *DriveApp) GetFile(ctx context.Context, fileID int64) (*queries.File, error) {
	return a.service.GetFile(ctx, fileID)
}

func (a *DriveApp) GetFileHistory(ctx context.Context, fileID int64) ([]*drive.HistoryEntry, error) {
	return a.service.GetFileHistory(ctx, fileID)
}

func (a *DriveApp) RenameFile(ctx context.Context, fileID int64, name string) error {
	return a.mutate(ctx, func() error {
		return a.service.RenameFile(ctx, fileID, name)
	})
}

func (a *DriveApp) MoveFile(ctx context.Context, fileID int64, folderID *int64) error {
	return a.mutate(ctx, func() error {
		return a.service.MoveFile(ctx, fileID, folderID)
	})
}

func (a *DriveApp) DeleteFile(ctx context.Context, fileID int64) error {
	return a.mutate(ctx, func() error {
		return a.service.DeleteFile(ctx, fileID)
	})
}

// Maintenance

func (a *DriveApp) Fsck(ctx context.Context) ([]drive.ClosureViolation, error) {
	return a.service.Fsck(ctx)
}

// GetHistory returns the most recent operations.
func (a *DriveApp) GetHistory(ctx context.Context, limit int) ([]*queries.Operation, error) {
	return a.service.GetHistory(ctx, limit)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record and, for a SQLite
// file database, uploads a snapshot of it to the blob store.
// For non-persisted operations: just closes the database.
func (a *DriveApp) Close() error {
	ctx := context.Background()
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	var snapshot string
	if a.op.Persisted() {
		if err := a.db.FinishOperation(ctx, a.op.ID, a.op.Status); err != nil {
			keep(fmt.Errorf("finishing operation: %w", err))
		}

		if a.snapshotEnabled() {
			p, err := a.snapshotDatabase()
			if err != nil {
				keep(err)
			}
			snapshot = p
		}
	}

	if err := a.db.Close(); err != nil {
		keep(fmt.Errorf("closing database: %w", err))
	}

	if snapshot != "" {
		if err := a.uploadMetadata(ctx, snapshot); err != nil {
			keep(err)
		}
		os.Remove(snapshot)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

func (a *DriveApp) snapshotEnabled() bool {
	return a.cfg.Database.Type == "sqlite" && a.db.Path() != ""
}

// snapshotDatabase copies the SQLite database into a temp file and returns
// its path, or "" on failure.
func (a *DriveApp) snapshotDatabase() (string, error) {
	tmpFile, err := os.CreateTemp("", "drive-db-backup-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file for db backup: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	if err := a.db.BackupTo(tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("backing up database: %w", err)
	}
	return tmpPath, nil
}

// uploadMetadata uploads the database snapshot to the blob store.
func (a *DriveApp) uploadMetadata(ctx context.Context, snapshot string) error {
	f, err := os.Open(snapshot)
	if err != nil {
		return fmt.Errorf("opening db backup for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat db backup: %w", err)
	}

	if err := a.blobs.Put(ctx, metadataKey(a.cfg.InstanceID), f, info.Size()); err != nil {
		return fmt.Errorf("uploading metadata snapshot: %w", err)
	}
	return nil
}

// withSpool copies r into a temp file and calls fn with the file rewound and
// its size.
func withSpool(r io.Reader, fn func(content io.Reader, size int64) error) error {
	spool, err := os.CreateTemp("", "drive-stdin-*")
	if err != nil {
		return fmt.Errorf("creating spool file: %w", err)
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	size, err := io.Copy(spool, r)
	if err != nil {
		return fmt.Errorf("spooling content: %w", err)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding spool file: %w", err)
	}
	return fn(spool, size)
}

// ParseID parses a folder or file id given on the command line.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
