package drive_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"drive-go/internal/drive"
	"drive-go/internal/testutil"
)

func upload(t *testing.T, svc *drive.DriveService, owner string, folder *int64, name, content string) int64 {
	t.Helper()
	f, err := svc.UploadFile(context.Background(), drive.UploadRequest{
		OwnerID: owner, FolderID: folder, Name: name,
		Content: strings.NewReader(content), Size: int64(len(content)),
	})
	if err != nil {
		t.Fatalf("UploadFile(%s) error = %v", name, err)
	}
	return f.ID
}

func download(t *testing.T, svc *drive.DriveService, fileID int64, key string, dc drive.DecryptionContext) string {
	t.Helper()
	var buf bytes.Buffer
	if err := svc.DownloadFile(context.Background(), fileID, key, &buf, dc); err != nil {
		t.Fatalf("DownloadFile() error = %v", err)
	}
	return buf.String()
}

func TestDriveService_UploadAndVersions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, drive.Options{})

	id := upload(t, f.svc, "u1", nil, "notes.txt", "v1")
	file, err := f.svc.GetFile(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(file.Type, "text/plain") {
		t.Errorf("Type = %q, want text/plain", file.Type)
	}

	if _, err := f.svc.UploadVersion(ctx, id, strings.NewReader("version two"), 11); err != nil {
		t.Fatalf("UploadVersion() error = %v", err)
	}

	history, err := f.svc.GetFileHistory(ctx, id)
	if err != nil {
		t.Fatalf("GetFileHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if !history[0].IsCurrent || history[1].IsCurrent {
		t.Errorf("IsCurrent = [%v %v], want [true false]", history[0].IsCurrent, history[1].IsCurrent)
	}
	if !history[0].CreatedAt.After(history[1].CreatedAt) {
		t.Errorf("history not newest first: %v then %v", history[0].CreatedAt, history[1].CreatedAt)
	}
	if !strings.HasPrefix(history[0].Key, "u1/") {
		t.Errorf("Key = %q, want owner prefix", history[0].Key)
	}

	if got := download(t, f.svc, id, "", nil); got != "version two" {
		t.Errorf("current content = %q", got)
	}
	if got := download(t, f.svc, id, history[1].Key, nil); got != "v1" {
		t.Errorf("old content = %q", got)
	}

	file, err = f.svc.GetFile(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if file.Size != 11 {
		t.Errorf("Size = %d, want 11", file.Size)
	}

	err = f.svc.DownloadFile(ctx, id, "u1/nope", &bytes.Buffer{}, nil)
	var nf *drive.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "version" {
		t.Errorf("DownloadFile(unknown key) error = %v, want version not found", err)
	}
}

func TestDriveService_EncryptedRoundTrip(t *testing.T) {
	ctx := context.Background()
	enc := testutil.NewTestEncryptor()
	f := newFixture(t, enc, drive.Options{})

	id := upload(t, f.svc, "u1", nil, "secret.bin", "top secret")

	history, err := f.svc.GetFileHistory(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	var stored bytes.Buffer
	if err := f.blobs.Get(ctx, history[0].Key, &stored); err != nil {
		t.Fatalf("blob Get() error = %v", err)
	}
	if stored.String() == "top secret" {
		t.Error("blob store holds plaintext")
	}
	if history[0].Size != int64(len("top secret")) {
		t.Errorf("recorded size = %d, want plaintext size", history[0].Size)
	}

	if err := f.svc.DownloadFile(ctx, id, "", &bytes.Buffer{}, nil); err == nil {
		t.Error("DownloadFile() without decryption context expected error")
	}

	dc, err := enc.Unlock("passphrase")
	if err != nil {
		t.Fatal(err)
	}
	if got := download(t, f.svc, id, "", dc); got != "top secret" {
		t.Errorf("decrypted content = %q", got)
	}
}

func TestDriveService_UploadValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, drive.Options{})

	_, err := f.svc.UploadFile(ctx, drive.UploadRequest{
		OwnerID: "u1", Name: "bad/name", Content: strings.NewReader("x"), Size: 1,
	})
	var ve *drive.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("UploadFile() error = %v, want ValidationError", err)
	}

	_, err = f.svc.UploadFile(ctx, drive.UploadRequest{
		OwnerID: "u1", FolderID: ptr(99), Name: "x.txt", Content: strings.NewReader("x"), Size: 1,
	})
	if !errors.Is(err, drive.ErrNotFound) {
		t.Errorf("UploadFile() into missing folder error = %v, want ErrNotFound", err)
	}

	_, err = f.svc.UploadFile(ctx, drive.UploadRequest{
		OwnerID: "u1", Name: "short.txt", Content: strings.NewReader("abc"), Size: 10,
	})
	if err == nil {
		t.Error("UploadFile() with wrong size expected error")
	}
	if f.blobs.Len() != 1 {
		// The upload into the missing folder stored its blob before the
		// folder check failed.
		t.Errorf("blobs = %d, want 1 orphan", f.blobs.Len())
	}
}

func TestDriveService_RenameMoveDeleteFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, drive.Options{})

	folder := mustFolder(t, f.svc, "Docs", nil, "u1")
	id := upload(t, f.svc, "u1", nil, "a.txt", "one")
	if _, err := f.svc.UploadVersion(ctx, id, strings.NewReader("two"), 3); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.RenameFile(ctx, id, "b.txt"); err != nil {
		t.Fatalf("RenameFile() error = %v", err)
	}
	if err := f.svc.MoveFile(ctx, id, ptr(folder)); err != nil {
		t.Fatalf("MoveFile() error = %v", err)
	}
	file, err := f.svc.GetFile(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if file.Name != "b.txt" || !file.FolderID.Valid || file.FolderID.Int64 != folder {
		t.Errorf("file = %+v, want b.txt in folder %d", file, folder)
	}

	if err := f.svc.MoveFile(ctx, id, ptr(404)); !errors.Is(err, drive.ErrNotFound) {
		t.Errorf("MoveFile() to missing folder error = %v, want ErrNotFound", err)
	}

	if err := f.svc.DeleteFile(ctx, id); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if f.blobs.Len() != 0 {
		t.Errorf("blobs = %d, want 0", f.blobs.Len())
	}
	if err := f.svc.DeleteFile(ctx, id); !errors.Is(err, drive.ErrNotFound) {
		t.Errorf("second DeleteFile() error = %v, want ErrNotFound", err)
	}
}

func TestDriveService_UploadPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, drive.Options{})

	f.fsmgr.AddFile("/home/u1/project/README.md", []byte("# readme"))
	f.fsmgr.AddFile("/home/u1/project/src/main.go", []byte("package main"))
	f.fsmgr.AddFile("/home/u1/project/src/util/util.go", []byte("package util"))

	files, err := f.svc.UploadPath(ctx, "u1", nil, "/home/u1/project")
	if err != nil {
		t.Fatalf("UploadPath() error = %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("uploaded %d files, want 3", len(files))
	}

	roots, err := f.db.ListRootFolders(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 1 || roots[0].Name != "project" {
		t.Fatalf("roots = %+v, want [project]", roots)
	}

	tree, err := f.svc.GetTree(ctx, roots[0].ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	paths, err := f.svc.GetPaths(ctx, roots[0].ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	tree.Walk(func(n *drive.TreeNode) {
		for _, file := range n.Files {
			got[paths[n.ID]+"/"+file.Name] = true
		}
	})
	for _, want := range []string{"project/README.md", "project/src/main.go", "project/src/util/util.go"} {
		if !got[want] {
			t.Errorf("missing %s in %v", want, got)
		}
	}
	assertFsckClean(t, f.svc)

	single, err := f.svc.UploadPath(ctx, "u1", nil, "/home/u1/project/README.md")
	if err != nil {
		t.Fatalf("UploadPath(file) error = %v", err)
	}
	if len(single) != 1 || single[0].FolderID.Valid {
		t.Errorf("UploadPath(file) = %+v, want one top-level file", single)
	}
}

func TestDriveService_UploadPath_EmptyDirectories(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, drive.Options{})

	f.fsmgr.AddFile("/home/u1/site/index.html", []byte("<html></html>"))
	f.fsmgr.AddDirectory("/home/u1/site/assets/img")
	f.fsmgr.AddDirectory("/home/u1/site/drafts")

	files, err := f.svc.UploadPath(ctx, "u1", nil, "/home/u1/site")
	if err != nil {
		t.Fatalf("UploadPath() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("uploaded %d files, want 1", len(files))
	}

	roots, err := f.db.ListRootFolders(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 1 || roots[0].Name != "site" {
		t.Fatalf("roots = %+v, want [site]", roots)
	}

	paths, err := f.svc.GetPaths(ctx, roots[0].ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, p := range paths {
		got[p] = true
	}
	want := []string{"site", "site/assets", "site/assets/img", "site/drafts"}
	if len(got) != len(want) {
		t.Errorf("folders = %v, want %v", got, want)
	}
	for _, p := range want {
		if !got[p] {
			t.Errorf("missing folder %s in %v", p, got)
		}
	}
	assertFsckClean(t, f.svc)
}
