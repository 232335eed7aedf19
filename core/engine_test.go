package core

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/auth"
	"github.com/quickserve/quickserve/backends"
	"github.com/quickserve/quickserve/backends/localfs"
)

func newTestEngine(t *testing.T, useRecycleBin bool) (*Engine, string) {
	t.Helper()

	root := t.TempDir()
	storage, err := localfs.NewAdapter(root)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	t.Cleanup(func() { storage.Close() })

	return NewEngine(storage, "localfs", useRecycleBin, zap.NewNop()), root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func allPerms() auth.Identity {
	return auth.Identity{Username: "alice", Perms: auth.AllPermissions()}
}

func noPerms() auth.Identity {
	return auth.Identity{Username: "bob"}
}

func TestListExcludesRecycleBin(t *testing.T) {
	e, root := newTestEngine(t, true)
	writeFile(t, root, "docs/a.txt", "a")
	writeFile(t, root, "docs/.recycle_bin/old.txt", "x")
	writeFile(t, root, "docs/sub/b.txt", "b")

	listing, err := e.List(context.Background(), allPerms(), "docs")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.CurrentDir != "docs" || listing.ParentDir != "" {
		t.Errorf("listing dirs = %q/%q", listing.CurrentDir, listing.ParentDir)
	}

	var names []string
	for _, entry := range listing.Entries {
		names = append(names, entry.Name)
	}
	got := strings.Join(names, ",")
	if got != "sub,a.txt" {
		t.Errorf("entries = %q, want folders first and no recycle bin", got)
	}
}

func TestListMissingDirectory(t *testing.T) {
	e, _ := newTestEngine(t, true)
	_, err := e.List(context.Background(), allPerms(), "nope")
	if !errors.Is(err, backends.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDownload(t *testing.T) {
	e, root := newTestEngine(t, true)
	writeFile(t, root, "docs/report.txt", "hello")

	rc, entry, err := e.Download(context.Background(), allPerms(), "docs/report.txt")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}
	if entry.Size != 5 {
		t.Errorf("size = %d", entry.Size)
	}
}

func TestPermissionDenied(t *testing.T) {
	e, root := newTestEngine(t, true)
	writeFile(t, root, "f.txt", "x")
	ctx := context.Background()
	id := noPerms()

	if _, _, err := e.Download(ctx, id, "f.txt"); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Errorf("download: %v", err)
	}
	if _, err := e.Upload(ctx, id, "", "g.txt", strings.NewReader("y")); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Errorf("upload: %v", err)
	}
	if err := e.Delete(ctx, id, "f.txt"); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Errorf("delete: %v", err)
	}
	if _, err := e.Preview(ctx, id, "f.txt"); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Errorf("preview: %v", err)
	}
	if err := e.Archive(ctx, id, "", io.Discard); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Errorf("archive: %v", err)
	}

	// Listing and search need only a verified identity.
	if _, err := e.List(ctx, id, ""); err != nil {
		t.Errorf("list should be allowed: %v", err)
	}
	if _, err := e.Search(ctx, id, "", "f"); err != nil {
		t.Errorf("search should be allowed: %v", err)
	}
}

func TestUploadCollisionRenaming(t *testing.T) {
	e, root := newTestEngine(t, true)
	writeFile(t, root, "docs/x.txt", "keep")
	ctx := context.Background()

	stored, err := e.Upload(ctx, allPerms(), "docs", "report.txt", strings.NewReader("v1"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if stored != "docs/report.txt" {
		t.Errorf("stored = %q", stored)
	}

	stored, err = e.Upload(ctx, allPerms(), "docs", "report.txt", strings.NewReader("v2"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if stored != "docs/report (1).txt" {
		t.Errorf("stored = %q, want collision suffix", stored)
	}

	// Original content is untouched.
	data, _ := os.ReadFile(filepath.Join(root, "docs/report.txt"))
	if string(data) != "v1" {
		t.Errorf("original overwritten: %q", data)
	}
}

func TestUploadRejectsBadFilenames(t *testing.T) {
	e, _ := newTestEngine(t, true)
	ctx := context.Background()

	for _, name := range []string{"", "a/b.txt", "../evil.txt", ".recycle_bin", "nul\x00.txt"} {
		if _, err := e.Upload(ctx, allPerms(), "", name, strings.NewReader("x")); !errors.Is(err, ErrAccessDenied) {
			t.Errorf("Upload filename %q: got %v, want ErrAccessDenied", name, err)
		}
	}
}

func TestDeleteToRecycleBinCollision(t *testing.T) {
	e, root := newTestEngine(t, true)
	ctx := context.Background()

	// The recycle bin already holds report.txt and report (1).txt.
	writeFile(t, root, "docs/.recycle_bin/report.txt", "old0")
	writeFile(t, root, "docs/.recycle_bin/report (1).txt", "old1")
	writeFile(t, root, "docs/report.txt", "current")

	if err := e.Delete(ctx, allPerms(), "docs/report.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	recycled := filepath.Join(root, "docs/.recycle_bin/report (2).txt")
	data, err := os.ReadFile(recycled)
	if err != nil {
		t.Fatalf("recycled copy missing: %v", err)
	}
	if string(data) != "current" {
		t.Errorf("recycled content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(root, "docs/report.txt")); !os.IsNotExist(err) {
		t.Error("original must be gone after recycling")
	}
}

func TestDeleteWithoutRecycleBin(t *testing.T) {
	e, root := newTestEngine(t, false)
	writeFile(t, root, "f.txt", "x")

	if err := e.Delete(context.Background(), allPerms(), "f.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "f.txt")); !os.IsNotExist(err) {
		t.Error("file must be destroyed when recycle bin is off")
	}
	if _, err := os.Stat(filepath.Join(root, ".recycle_bin")); !os.IsNotExist(err) {
		t.Error("no recycle bin must be created when disabled")
	}
}

func TestDeleteMissingFile(t *testing.T) {
	e, _ := newTestEngine(t, true)
	if err := e.Delete(context.Background(), allPerms(), "ghost.txt"); !errors.Is(err, backends.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// Direct access into a recycle bin is rejected, not merely hidden.
func TestRecycleBinPathsAreDenied(t *testing.T) {
	e, root := newTestEngine(t, true)
	writeFile(t, root, "docs/.recycle_bin/secret.txt", "x")
	ctx := context.Background()
	id := allPerms()

	if _, _, err := e.Download(ctx, id, "docs/.recycle_bin/secret.txt"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("download into recycle bin: %v", err)
	}
	if _, err := e.List(ctx, id, "docs/.recycle_bin"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("list of recycle bin: %v", err)
	}
	if err := e.Delete(ctx, id, "docs/.recycle_bin/secret.txt"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("delete inside recycle bin: %v", err)
	}
}

func TestPreview(t *testing.T) {
	e, root := newTestEngine(t, true)
	writeFile(t, root, "notes.txt", "plain text content")

	p, err := e.Preview(context.Background(), allPerms(), "notes.txt")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if string(p.Data) != "plain text content" {
		t.Errorf("data = %q", p.Data)
	}
	if !strings.HasPrefix(p.ContentType, "text/plain") {
		t.Errorf("content type = %q", p.ContentType)
	}
	if p.Truncated {
		t.Error("small file must not be truncated")
	}
}

func TestSearch(t *testing.T) {
	e, root := newTestEngine(t, true)
	writeFile(t, root, "docs/Report-2024.txt", "x")
	writeFile(t, root, "docs/sub/report-old.txt", "x")
	writeFile(t, root, "docs/.recycle_bin/report-deleted.txt", "x")
	writeFile(t, root, "music/song.mp3", "x")

	matches, err := e.Search(context.Background(), allPerms(), "", "report")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	var paths []string
	for _, m := range matches {
		paths = append(paths, m.Path)
	}
	want := map[string]bool{
		"docs/Report-2024.txt":   true,
		"docs/sub/report-old.txt": true,
	}
	if len(paths) != len(want) {
		t.Fatalf("matches = %v", paths)
	}
	for _, p := range paths {
		if !want[p] {
			t.Errorf("unexpected match %q", p)
		}
	}

	// Empty query returns nothing.
	matches, err = e.Search(context.Background(), allPerms(), "", "  ")
	if err != nil || matches != nil {
		t.Errorf("empty query: %v, %v", matches, err)
	}
}

func TestArchiveDirectory(t *testing.T) {
	e, root := newTestEngine(t, true)
	writeFile(t, root, "docs/a.txt", "aaa")
	writeFile(t, root, "docs/sub/b.txt", "bbb")
	writeFile(t, root, "docs/.recycle_bin/junk.txt", "x")

	var buf bytes.Buffer
	if err := e.Archive(context.Background(), allPerms(), "docs", &buf); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}

	got := map[string]bool{}
	for _, f := range zr.File {
		got[f.Name] = true
	}
	if !got["a.txt"] || !got["sub/b.txt"] {
		t.Errorf("archive entries = %v", got)
	}
	for name := range got {
		if strings.Contains(name, RecycleBinName) {
			t.Errorf("recycle bin leaked into archive: %q", name)
		}
	}
}

// recordingStorage fails the test if the engine touches it. Used to
// prove that containment failures never reach a filesystem call.
type recordingStorage struct {
	t *testing.T
}

func (r *recordingStorage) touched(op string) {
	r.t.Errorf("storage.%s called for a path that must be rejected upstream", op)
}

func (r *recordingStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	r.touched("Open")
	return nil, backends.ErrNotFound
}

func (r *recordingStorage) Create(ctx context.Context, path string, reader io.Reader) error {
	r.touched("Create")
	return nil
}

func (r *recordingStorage) Delete(ctx context.Context, path string) error {
	r.touched("Delete")
	return nil
}

func (r *recordingStorage) Rename(ctx context.Context, oldPath, newPath string) error {
	r.touched("Rename")
	return nil
}

func (r *recordingStorage) Stat(ctx context.Context, path string) (*backends.Entry, error) {
	r.touched("Stat")
	return nil, backends.ErrNotFound
}

func (r *recordingStorage) List(ctx context.Context, path string) ([]*backends.Entry, error) {
	r.touched("List")
	return nil, nil
}

func (r *recordingStorage) Exists(ctx context.Context, path string) (bool, error) {
	r.touched("Exists")
	return false, nil
}

func (r *recordingStorage) Close() error { return nil }

func TestTraversalNeverReachesStorage(t *testing.T) {
	e := NewEngine(&recordingStorage{t: t}, "mock", true, zap.NewNop())
	ctx := context.Background()
	id := allPerms()

	const evil = "../../etc/passwd"

	if _, err := e.List(ctx, id, evil); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("list: %v", err)
	}
	if _, _, err := e.Download(ctx, id, evil); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("download: %v", err)
	}
	if _, err := e.Upload(ctx, id, evil, "f.txt", strings.NewReader("x")); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("upload: %v", err)
	}
	if err := e.Delete(ctx, id, evil); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("delete: %v", err)
	}
	if _, err := e.Preview(ctx, id, evil); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("preview: %v", err)
	}
	if _, err := e.Search(ctx, id, evil, "q"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("search: %v", err)
	}
	if err := e.Archive(ctx, id, evil, io.Discard); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("archive: %v", err)
	}
}
