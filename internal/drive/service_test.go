package drive_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"drive-go/internal/blobstore"
	"drive-go/internal/drive"
	"drive-go/internal/testutil"
)

type fixture struct {
	svc   *drive.DriveService
	db    drive.Database
	blobs *blobstore.MemoryStore
	fsmgr *testutil.MockFilesystemManager
}

func newFixture(t *testing.T, enc drive.Encryptor, opts drive.Options) *fixture {
	t.Helper()
	if enc == nil {
		enc = testutil.NewPlainEncryptor()
	}
	clock := testutil.SteppingClock()
	db := testutil.NewTestDatabase(t, clock)
	blobs := testutil.NewTestBlobStore()
	fsmgr := testutil.NewMockFilesystemManager()
	svc := drive.NewDriveService(db, blobs, enc, fsmgr, drive.NewNopLogger(), clock, testutil.NewStubIDGenerator(), opts)
	return &fixture{svc: svc, db: db, blobs: blobs, fsmgr: fsmgr}
}

func ptr(v int64) *int64 { return &v }

func mustFolder(t *testing.T, svc *drive.DriveService, name string, parent *int64, owner string) int64 {
	t.Helper()
	id, err := svc.CreateFolder(context.Background(), name, parent, owner)
	if err != nil {
		t.Fatalf("CreateFolder(%q) error = %v", name, err)
	}
	return id
}

func assertFsckClean(t *testing.T, svc *drive.DriveService) {
	t.Helper()
	violations, err := svc.Fsck(context.Background())
	if err != nil {
		t.Fatalf("Fsck() error = %v", err)
	}
	for _, v := range violations {
		t.Errorf("closure violation on folder %d: %s", v.FolderID, v.Problem)
	}
}

func TestDriveService_ExampleScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, drive.Options{})

	docs := mustFolder(t, f.svc, "Docs", nil, "u1")
	year := mustFolder(t, f.svc, "2024", ptr(docs), "u1")
	if docs != 1 || year != 2 {
		t.Fatalf("ids = (%d, %d), want (1, 2)", docs, year)
	}

	ancestors, err := f.svc.GetAncestors(ctx, year)
	if err != nil {
		t.Fatalf("GetAncestors() error = %v", err)
	}
	if len(ancestors) != 1 || ancestors[0].FolderID != docs || ancestors[0].Depth != 1 {
		t.Errorf("GetAncestors(2) = %+v, want [Docs at depth 1]", ancestors)
	}

	paths, err := f.svc.GetPaths(ctx, docs, "u1")
	if err != nil {
		t.Fatalf("GetPaths() error = %v", err)
	}
	if paths[docs] != "Docs" || paths[year] != "Docs/2024" {
		t.Errorf("GetPaths() = %v", paths)
	}

	path, err := f.svc.GetPath(ctx, year)
	if err != nil {
		t.Fatalf("GetPath() error = %v", err)
	}
	if path != "Docs/2024" {
		t.Errorf("GetPath() = %q, want %q", path, "Docs/2024")
	}
	assertFsckClean(t, f.svc)
}

func TestDriveService_CreateFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid name never reaches storage", func(t *testing.T) {
		f := newFixture(t, nil, drive.Options{})
		_, err := f.svc.CreateFolder(ctx, "a/b", nil, "u1")
		var ve *drive.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("CreateFolder() error = %v, want ValidationError", err)
		}
		roots, err := f.db.ListRootFolders(ctx, "u1")
		if err != nil {
			t.Fatal(err)
		}
		if len(roots) != 0 {
			t.Errorf("roots = %d, want 0", len(roots))
		}
	})

	t.Run("top-level collision", func(t *testing.T) {
		f := newFixture(t, nil, drive.Options{})
		first := mustFolder(t, f.svc, "Docs", nil, "u1")

		_, err := f.svc.CreateFolder(ctx, "Docs", nil, "u1")
		var nc *drive.NameCollisionError
		if !errors.As(err, &nc) || nc.ExistingID != first {
			t.Fatalf("CreateFolder() error = %v, want NameCollisionError for %d", err, first)
		}

		// Other owners and nested folders may reuse the name.
		mustFolder(t, f.svc, "Docs", nil, "u2")
		mustFolder(t, f.svc, "Docs", ptr(first), "u1")
	})

	t.Run("missing parent", func(t *testing.T) {
		f := newFixture(t, nil, drive.Options{})
		_, err := f.svc.CreateFolder(ctx, "x", ptr(404), "u1")
		if !errors.Is(err, drive.ErrNotFound) {
			t.Errorf("CreateFolder() error = %v, want ErrNotFound", err)
		}
	})
}

func TestDriveService_MoveFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, drive.Options{})

	root := mustFolder(t, f.svc, "root", nil, "u1")
	a := mustFolder(t, f.svc, "a", ptr(root), "u1")
	a1 := mustFolder(t, f.svc, "a1", ptr(a), "u1")
	b := mustFolder(t, f.svc, "b", ptr(root), "u1")

	t.Run("under descendant is a cycle", func(t *testing.T) {
		err := f.svc.MoveFolder(ctx, a, a1)
		var ce *drive.CycleError
		if !errors.As(err, &ce) || ce.FolderID != a || ce.NewParentID != a1 {
			t.Fatalf("MoveFolder() error = %v, want CycleError", err)
		}
	})

	t.Run("into itself is a cycle", func(t *testing.T) {
		if err := f.svc.MoveFolder(ctx, a, a); !errors.Is(err, drive.ErrCycle) {
			t.Fatalf("MoveFolder() error = %v, want ErrCycle", err)
		}
	})

	t.Run("valid move updates paths", func(t *testing.T) {
		if err := f.svc.MoveFolder(ctx, a, b); err != nil {
			t.Fatalf("MoveFolder() error = %v", err)
		}
		path, err := f.svc.GetPath(ctx, a1)
		if err != nil {
			t.Fatal(err)
		}
		if path != "root/b/a/a1" {
			t.Errorf("GetPath(a1) = %q, want %q", path, "root/b/a/a1")
		}
		assertFsckClean(t, f.svc)
	})

	t.Run("to top level", func(t *testing.T) {
		if err := f.svc.MoveFolderToRoot(ctx, a); err != nil {
			t.Fatalf("MoveFolderToRoot() error = %v", err)
		}
		path, err := f.svc.GetPath(ctx, a1)
		if err != nil {
			t.Fatal(err)
		}
		if path != "a/a1" {
			t.Errorf("GetPath(a1) = %q, want %q", path, "a/a1")
		}
		assertFsckClean(t, f.svc)
	})
}

func TestDriveService_DeleteFolder(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, opts drive.Options) (*fixture, int64, int64) {
		t.Helper()
		f := newFixture(t, nil, opts)
		root := mustFolder(t, f.svc, "root", nil, "u1")
		child := mustFolder(t, f.svc, "child", ptr(root), "u1")
		file, err := f.svc.UploadFile(ctx, drive.UploadRequest{
			OwnerID: "u1", FolderID: ptr(child), Name: "note.txt",
			Content: strings.NewReader("hello"), Size: 5,
		})
		if err != nil {
			t.Fatalf("UploadFile() error = %v", err)
		}
		return f, root, file.ID
	}

	t.Run("detach keeps files at top level", func(t *testing.T) {
		f, root, fileID := setup(t, drive.Options{})

		if err := f.svc.DeleteFolder(ctx, root); err != nil {
			t.Fatalf("DeleteFolder() error = %v", err)
		}

		file, err := f.svc.GetFile(ctx, fileID)
		if err != nil {
			t.Fatalf("GetFile() error = %v", err)
		}
		if file.FolderID.Valid {
			t.Errorf("file folder = %v, want top level", file.FolderID)
		}
		if f.blobs.Len() != 1 {
			t.Errorf("blobs = %d, want 1", f.blobs.Len())
		}
		if _, err := f.svc.GetFolder(ctx, root); !errors.Is(err, drive.ErrNotFound) {
			t.Errorf("GetFolder() after delete error = %v, want ErrNotFound", err)
		}
		assertFsckClean(t, f.svc)
	})

	t.Run("delete removes files and blobs", func(t *testing.T) {
		f, root, fileID := setup(t, drive.Options{DeleteFilesWithFolder: true})

		if err := f.svc.DeleteFolder(ctx, root); err != nil {
			t.Fatalf("DeleteFolder() error = %v", err)
		}

		if _, err := f.svc.GetFile(ctx, fileID); !errors.Is(err, drive.ErrNotFound) {
			t.Errorf("GetFile() error = %v, want ErrNotFound", err)
		}
		if f.blobs.Len() != 0 {
			t.Errorf("blobs = %d, want 0", f.blobs.Len())
		}
		assertFsckClean(t, f.svc)
	})
}

func TestDriveService_RenameFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, drive.Options{})
	docs := mustFolder(t, f.svc, "Docs", nil, "u1")
	mustFolder(t, f.svc, "Photos", nil, "u1")

	if err := f.svc.RenameFolder(ctx, docs, "Photos"); !errors.Is(err, drive.ErrNameCollision) {
		t.Errorf("RenameFolder() to taken name error = %v, want ErrNameCollision", err)
	}
	if err := f.svc.RenameFolder(ctx, docs, ".."); err == nil {
		t.Error("RenameFolder(..) expected validation error")
	}
	if err := f.svc.RenameFolder(ctx, docs, "Papers"); err != nil {
		t.Fatalf("RenameFolder() error = %v", err)
	}
	folder, err := f.svc.GetFolder(ctx, docs)
	if err != nil {
		t.Fatal(err)
	}
	if folder.Name != "Papers" {
		t.Errorf("Name = %q, want Papers", folder.Name)
	}
}

func TestDriveService_GetTreeAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, drive.Options{})

	root := mustFolder(t, f.svc, "root", nil, "u1")
	sub := mustFolder(t, f.svc, "sub", ptr(root), "u1")
	for _, up := range []struct {
		name   string
		folder *int64
	}{
		{"in-root.txt", ptr(root)},
		{"in-sub.txt", ptr(sub)},
		{"loose.txt", nil},
	} {
		if _, err := f.svc.UploadFile(ctx, drive.UploadRequest{
			OwnerID: "u1", FolderID: up.folder, Name: up.name,
			Content: strings.NewReader("x"), Size: 1,
		}); err != nil {
			t.Fatalf("UploadFile(%s) error = %v", up.name, err)
		}
	}

	tree, err := f.svc.GetTree(ctx, root, "u1")
	if err != nil {
		t.Fatalf("GetTree() error = %v", err)
	}
	if len(tree.Files) != 1 || tree.Files[0].Name != "in-root.txt" {
		t.Errorf("root files = %+v", tree.Files)
	}
	if len(tree.Children) != 1 || len(tree.Children[0].Files) != 1 {
		t.Errorf("children = %+v", tree.Children)
	}

	top, err := f.svc.List(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("List(top) error = %v", err)
	}
	if len(top.Folders) != 1 || len(top.Files) != 1 || top.Files[0].Name != "loose.txt" {
		t.Errorf("List(top) = %+v", top)
	}

	inRoot, err := f.svc.List(ctx, "u1", ptr(root))
	if err != nil {
		t.Fatalf("List(root) error = %v", err)
	}
	if len(inRoot.Folders) != 1 || inRoot.Folders[0].ID != sub || len(inRoot.Files) != 1 {
		t.Errorf("List(root) = %+v", inRoot)
	}

	if _, err := f.svc.List(ctx, "u2", ptr(root)); !errors.Is(err, drive.ErrNotFound) {
		t.Errorf("List() by other owner error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.GetTree(ctx, root, "u2"); !errors.Is(err, drive.ErrNotFound) {
		t.Errorf("GetTree() by other owner error = %v, want ErrNotFound", err)
	}
}
