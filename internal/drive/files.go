package drive

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"drive-go/internal/database/queries"
)

// sniffLen is how much of an upload is inspected to detect its content type.
const sniffLen = 3072

// UploadRequest describes a new file. An empty Type is detected from the
// content.
type UploadRequest struct {
	OwnerID  string
	FolderID *int64
	Name     string
	Type     string
	Content  io.Reader
	Size     int64
}

// HistoryEntry is one stored version of a file.
type HistoryEntry struct {
	Key       string
	Size      int64
	CreatedAt time.Time
	IsCurrent bool
}

// UploadFile stores the content in the blob store, then records the file and
// its first version in one transaction. If the transaction fails the blob is
// left orphaned, which is harmless.
func (s *DriveService) UploadFile(ctx context.Context, req UploadRequest) (*queries.File, error) {
	if err := ValidateFileName(req.Name); err != nil {
		return nil, err
	}
	if err := ValidateOwnerID(req.OwnerID); err != nil {
		return nil, err
	}

	content, contentType := req.Content, req.Type
	if contentType == "" {
		content, contentType = detectType(req.Content)
	}

	key := s.newBlobKey(req.OwnerID)
	if err := s.putBlob(ctx, key, content, req.Size); err != nil {
		return nil, err
	}

	file, err := s.database.CreateFile(ctx, NewFile{
		Name:     req.Name,
		OwnerID:  req.OwnerID,
		FolderID: req.FolderID,
		Type:     contentType,
		Size:     req.Size,
		BlobKey:  key,
	})
	if err != nil {
		return nil, fmt.Errorf("recording file: %w", err)
	}

	s.logger.Info("file uploaded", "file_id", file.ID, "name", file.Name, "owner_id", file.OwnerID, "size", file.Size)
	return file, nil
}

// UploadPath uploads a local file, or a local directory as a new folder
// holding its files and subdirectories, into folderID (nil for the owner's
// top level). Every subdirectory becomes a folder, empty ones included.
// Files and directories matched by the ignore rules are skipped.
func (s *DriveService) UploadPath(ctx context.Context, ownerID string, folderID *int64, rawPath string) ([]*queries.File, error) {
	p, err := s.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	if !p.IsDir() {
		f, err := s.uploadLocal(ctx, ownerID, folderID, p)
		if err != nil {
			return nil, err
		}
		return []*queries.File{f}, nil
	}

	dirs, err := s.fsmgr.FindDirs(p, true)
	if err != nil {
		return nil, fmt.Errorf("finding directories: %w", err)
	}
	files, err := s.fsmgr.FindFiles(p, true)
	if err != nil {
		return nil, fmt.Errorf("finding files: %w", err)
	}

	rootID, err := s.CreateFolder(ctx, filepath.Base(p.String()), folderID, ownerID)
	if err != nil {
		return nil, err
	}

	// Relative directory -> folder id, created on demand.
	folders := map[string]int64{".": rootID}
	var ensure func(dir string) (int64, error)
	ensure = func(dir string) (int64, error) {
		if id, ok := folders[dir]; ok {
			return id, nil
		}
		parent, err := ensure(filepath.Dir(dir))
		if err != nil {
			return 0, err
		}
		id, err := s.CreateFolder(ctx, filepath.Base(dir), &parent, ownerID)
		if err != nil {
			return 0, err
		}
		folders[dir] = id
		return id, nil
	}

	for _, d := range dirs {
		rel, err := filepath.Rel(p.String(), d.String())
		if err != nil {
			return nil, fmt.Errorf("calculating relative path: %w", err)
		}
		if _, err := ensure(rel); err != nil {
			return nil, err
		}
	}

	uploaded := make([]*queries.File, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(p.String(), f.String())
		if err != nil {
			return uploaded, fmt.Errorf("calculating relative path: %w", err)
		}
		dirID, err := ensure(filepath.Dir(rel))
		if err != nil {
			return uploaded, err
		}
		file, err := s.uploadLocal(ctx, ownerID, &dirID, f)
		if err != nil {
			return uploaded, err
		}
		uploaded = append(uploaded, file)
	}

	return uploaded, nil
}

func (s *DriveService) uploadLocal(ctx context.Context, ownerID string, folderID *int64, p *LocalPath) (*queries.File, error) {
	rc, err := s.fsmgr.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", p.String(), err)
	}
	defer rc.Close()

	return s.UploadFile(ctx, UploadRequest{
		OwnerID:  ownerID,
		FolderID: folderID,
		Name:     filepath.Base(p.String()),
		Content:  rc,
		Size:     p.Info().Size(),
	})
}

// UploadVersion stores new content for an existing file. The new version
// becomes current.
func (s *DriveService) UploadVersion(ctx context.Context, fileID int64, content io.Reader, size int64) (*queries.History, error) {
	file, err := s.database.GetFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", err)
	}

	key := s.newBlobKey(file.OwnerID)
	if err := s.putBlob(ctx, key, content, size); err != nil {
		return nil, err
	}

	h, err := s.database.AddFileVersion(ctx, fileID, key, size)
	if err != nil {
		return nil, fmt.Errorf("recording version: %w", err)
	}

	s.logger.Info("file version added", "file_id", fileID, "key", key, "size", size)
	return h, nil
}

// GetFile returns a single file.
func (s *DriveService) GetFile(ctx context.Context, fileID int64) (*queries.File, error) {
	return s.database.GetFile(ctx, fileID)
}

// GetFileHistory returns every version of a file, newest first. The first
// entry is the current version.
func (s *DriveService) GetFileHistory(ctx context.Context, fileID int64) ([]*HistoryEntry, error) {
	versions, err := s.database.FindFileHistory(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("finding file history: %w", err)
	}

	entries := make([]*HistoryEntry, len(versions))
	for i, h := range versions {
		entries[i] = &HistoryEntry{
			Key:       h.S3Key,
			Size:      h.Size,
			CreatedAt: h.CreatedAt,
			IsCurrent: i == 0,
		}
	}
	return entries, nil
}

// DownloadFile writes a version of the file to w: the current version when
// versionKey is empty. decryptCtx is required when the encryptor is enabled.
func (s *DriveService) DownloadFile(ctx context.Context, fileID int64, versionKey string, w io.Writer, decryptCtx DecryptionContext) error {
	versions, err := s.database.FindFileHistory(ctx, fileID)
	if err != nil {
		return fmt.Errorf("finding file history: %w", err)
	}
	if len(versions) == 0 {
		return &NotFoundError{Kind: "version", ID: fileID}
	}

	key := versions[0].S3Key
	if versionKey != "" {
		key = ""
		for _, h := range versions {
			if h.S3Key == versionKey {
				key = h.S3Key
				break
			}
		}
		if key == "" {
			return &NotFoundError{Kind: "version", ID: versionKey}
		}
	}

	if !s.encryptor.Enabled() {
		if err := s.blobs.Get(ctx, key, w); err != nil {
			return fmt.Errorf("retrieving blob: %w", err)
		}
		return nil
	}

	if decryptCtx == nil {
		return fmt.Errorf("content is encrypted but no passphrase was provided")
	}

	// Pipe the blob straight into the decryptor; no intermediate buffer.
	pr, pw := io.Pipe()
	blobErrCh := make(chan error, 1)
	go func() {
		err := s.blobs.Get(ctx, key, pw)
		pw.CloseWithError(err)
		blobErrCh <- err
	}()

	decryptErr := decryptCtx.Decrypt(pr, w)
	pr.CloseWithError(decryptErr)
	blobErr := <-blobErrCh

	// A failed Decrypt closes the pipe, which surfaces as a write error in
	// the blob goroutine; report the root cause.
	if blobErr != nil && (decryptErr == nil || errors.Is(blobErr, ErrNotFound)) {
		return fmt.Errorf("retrieving blob: %w", blobErr)
	}
	if decryptErr != nil {
		return fmt.Errorf("decrypting content: %w", decryptErr)
	}
	return nil
}

// RenameFile changes a file's name.
func (s *DriveService) RenameFile(ctx context.Context, fileID int64, name string) error {
	if err := ValidateFileName(name); err != nil {
		return err
	}
	if err := s.database.RenameFile(ctx, fileID, name); err != nil {
		return fmt.Errorf("renaming file: %w", err)
	}

	s.logger.Info("file renamed", "file_id", fileID, "name", name)
	return nil
}

// MoveFile re-associates a file with folderID, or the owner's top level.
func (s *DriveService) MoveFile(ctx context.Context, fileID int64, folderID *int64) error {
	if err := s.database.MoveFile(ctx, fileID, folderID); err != nil {
		return fmt.Errorf("moving file: %w", err)
	}

	s.logger.Info("file moved", "file_id", fileID, "folder_id", folderID)
	return nil
}

// DeleteFile removes a file, its history and, best-effort, every stored
// version's blob.
func (s *DriveService) DeleteFile(ctx context.Context, fileID int64) error {
	keys, err := s.database.DeleteFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}

	s.removeBlobs(ctx, keys)
	s.logger.Info("file deleted", "file_id", fileID, "versions", len(keys))
	return nil
}

func (s *DriveService) newBlobKey(ownerID string) string {
	return ownerID + "/" + s.idgen.New()
}

// putBlob stores plaintext directly, or spools the ciphertext to a temp file
// first so its size is known before upload.
func (s *DriveService) putBlob(ctx context.Context, key string, content io.Reader, size int64) error {
	if !s.encryptor.Enabled() {
		if err := s.blobs.Put(ctx, key, content, size); err != nil {
			return fmt.Errorf("storing blob: %w", err)
		}
		return nil
	}

	spool, err := os.CreateTemp("", "drive-upload-*")
	if err != nil {
		return fmt.Errorf("creating upload spool: %w", err)
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	counted := &countingReader{r: content}
	if err := s.encryptor.Encrypt(counted, spool); err != nil {
		return fmt.Errorf("encrypting content: %w", err)
	}
	if counted.n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counted.n)
	}

	encSize, err := spool.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("sizing upload spool: %w", err)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding upload spool: %w", err)
	}

	if err := s.blobs.Put(ctx, key, spool, encSize); err != nil {
		return fmt.Errorf("storing blob: %w", err)
	}
	return nil
}

// detectType sniffs the start of r and returns a reader that still yields
// the full content.
func detectType(r io.Reader) (io.Reader, string) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, _ := br.Peek(sniffLen)
	return br, mimetype.Detect(head).String()
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
