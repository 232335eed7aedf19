package core

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/auth"
	"github.com/quickserve/quickserve/backends"
	qlog "github.com/quickserve/quickserve/core/log"
	"github.com/quickserve/quickserve/internal/pathutil"
	"github.com/quickserve/quickserve/metrics"
)

// previewLimit caps how many bytes a preview reads from a file.
const previewLimit = 64 * 1024

// DirectoryListing is the result of a List call.
type DirectoryListing struct {
	CurrentDir string
	ParentDir  string
	Entries    []*backends.Entry
}

// Preview carries the head of a file plus its detected content type.
type Preview struct {
	Name        string
	Path        string
	ContentType string
	Size        int64
	Data        []byte
	Truncated   bool
}

// List returns the children of a directory, recycle bins excluded.
// Listing needs no permission flag beyond a verified identity.
func (e *Engine) List(ctx context.Context, id auth.Identity, rawPath string) (*DirectoryListing, error) {
	defer e.observe("list")()

	relPath, err := e.resolve(rawPath)
	if err != nil {
		return nil, err
	}

	entry, err := e.storage.Stat(ctx, relPath)
	if err != nil {
		return nil, err
	}
	if !entry.IsDir {
		return nil, backends.ErrNotFound
	}

	children, err := e.storage.List(ctx, relPath)
	if err != nil {
		return nil, err
	}

	visible := children[:0]
	for _, c := range children {
		if c.Name == RecycleBinName {
			continue
		}
		visible = append(visible, c)
	}

	return &DirectoryListing{
		CurrentDir: relPath,
		ParentDir:  pathutil.Parent(relPath),
		Entries:    visible,
	}, nil
}

// Download opens a file for reading. Requires can_download.
func (e *Engine) Download(ctx context.Context, id auth.Identity, rawPath string) (io.ReadCloser, *backends.Entry, error) {
	defer e.observe("download")()

	if !id.Perms.CanDownload {
		return nil, nil, auth.ErrPermissionDenied
	}

	relPath, err := e.resolve(rawPath)
	if err != nil {
		return nil, nil, err
	}

	entry, err := e.storage.Stat(ctx, relPath)
	if err != nil {
		return nil, nil, err
	}
	if entry.IsDir {
		return nil, nil, backends.ErrNotFound
	}

	reader, err := e.storage.Open(ctx, relPath)
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info("file downloaded",
		zap.String("user", qlog.User(id.Username)),
		zap.String("path", qlog.Path(relPath)),
		zap.Int64("size", entry.Size))

	return reader, entry, nil
}

// Upload stores a new file under a directory. An existing name is
// never overwritten: the stored name gains a " (N)" suffix instead.
// Requires can_upload. Returns the root-relative path actually used.
func (e *Engine) Upload(ctx context.Context, id auth.Identity, rawDir, filename string, reader io.Reader) (string, error) {
	defer e.observe("upload")()

	if !id.Perms.CanUpload {
		return "", auth.ErrPermissionDenied
	}

	dir, err := e.resolve(rawDir)
	if err != nil {
		return "", err
	}

	name, err := pathutil.Sanitize(filename)
	if err != nil || name == "" || strings.Contains(name, "/") || name == RecycleBinName {
		return "", ErrAccessDenied
	}

	entry, err := e.storage.Stat(ctx, dir)
	if err != nil {
		return "", err
	}
	if !entry.IsDir {
		return "", backends.ErrNotFound
	}

	stored, err := e.availableName(ctx, dir, name)
	if err != nil {
		return "", err
	}

	target := path.Join(dir, stored)
	if err := e.storage.Create(ctx, target, reader); err != nil {
		return "", err
	}

	e.logger.Info("file uploaded",
		zap.String("user", qlog.User(id.Username)),
		zap.String("path", qlog.Path(target)))

	return target, nil
}

// Delete removes a file or directory tree. With the recycle bin
// enabled the item is moved into a .recycle_bin directory next to it,
// with collision-safe renaming, instead of being destroyed.
// Requires can_delete.
func (e *Engine) Delete(ctx context.Context, id auth.Identity, rawPath string) error {
	defer e.observe("delete")()

	if !id.Perms.CanDelete {
		return auth.ErrPermissionDenied
	}

	relPath, err := e.resolve(rawPath)
	if err != nil {
		return err
	}
	if relPath == "" {
		// The share root itself is not deletable.
		return ErrAccessDenied
	}

	if _, err := e.storage.Stat(ctx, relPath); err != nil {
		return err
	}

	if !e.useRecycleBin {
		if err := e.storage.Delete(ctx, relPath); err != nil {
			return err
		}
		e.logger.Info("file deleted",
			zap.String("user", qlog.User(id.Username)),
			zap.String("path", qlog.Path(relPath)))
		return nil
	}

	binDir := path.Join(pathutil.Parent(relPath), RecycleBinName)
	stored, err := e.availableName(ctx, binDir, path.Base(relPath))
	if err != nil {
		return err
	}

	target := path.Join(binDir, stored)
	if err := e.storage.Rename(ctx, relPath, target); err != nil {
		return err
	}

	e.logger.Info("file recycled",
		zap.String("user", qlog.User(id.Username)),
		zap.String("path", qlog.Path(relPath)),
		zap.String("recycled_as", qlog.Path(stored)))
	return nil
}

// Preview returns the head of a file and its detected content type.
// Requires can_see_preview.
func (e *Engine) Preview(ctx context.Context, id auth.Identity, rawPath string) (*Preview, error) {
	defer e.observe("preview")()

	if !id.Perms.CanSeePreview {
		return nil, auth.ErrPermissionDenied
	}

	relPath, err := e.resolve(rawPath)
	if err != nil {
		return nil, err
	}

	entry, err := e.storage.Stat(ctx, relPath)
	if err != nil {
		return nil, err
	}
	if entry.IsDir {
		return nil, backends.ErrNotFound
	}

	reader, err := e.storage.Open(ctx, relPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, previewLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to read preview: %w", err)
	}

	return &Preview{
		Name:        entry.Name,
		Path:        relPath,
		ContentType: http.DetectContentType(data),
		Size:        entry.Size,
		Data:        data,
		Truncated:   entry.Size > previewLimit,
	}, nil
}

// Search walks the tree under a starting directory and returns every
// entry whose name contains the query, case-insensitively. Recycle
// bins are never descended into. Needs only a verified identity.
func (e *Engine) Search(ctx context.Context, id auth.Identity, rawPath, query string) ([]*backends.Entry, error) {
	defer e.observe("search")()

	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	relPath, err := e.resolve(rawPath)
	if err != nil {
		return nil, err
	}

	entry, err := e.storage.Stat(ctx, relPath)
	if err != nil {
		return nil, err
	}
	if !entry.IsDir {
		return nil, backends.ErrNotFound
	}

	needle := strings.ToLower(query)
	var matches []*backends.Entry
	err = e.walk(ctx, relPath, func(child *backends.Entry) {
		if strings.Contains(strings.ToLower(child.Name), needle) {
			matches = append(matches, child)
		}
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Archive streams a zip of a directory tree (or a single file) to w.
// Requires can_download, since it is bulk download.
func (e *Engine) Archive(ctx context.Context, id auth.Identity, rawPath string, w io.Writer) error {
	defer e.observe("archive")()

	if !id.Perms.CanDownload {
		return auth.ErrPermissionDenied
	}

	relPath, err := e.resolve(rawPath)
	if err != nil {
		return err
	}

	entry, err := e.storage.Stat(ctx, relPath)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	if !entry.IsDir {
		if err := e.addToZip(ctx, zw, relPath, entry.Name); err != nil {
			return err
		}
		return zw.Close()
	}

	// Zip entry names are relative to the archived directory.
	base := relPath
	err = e.walkEntries(ctx, relPath, func(child *backends.Entry) error {
		if child.IsDir {
			return nil
		}
		name := strings.TrimPrefix(child.Path, base)
		name = strings.TrimPrefix(name, "/")
		return e.addToZip(ctx, zw, child.Path, name)
	})
	if err != nil {
		return err
	}

	e.logger.Info("archive streamed",
		zap.String("user", qlog.User(id.Username)),
		zap.String("path", qlog.Path(relPath)))

	return zw.Close()
}

func (e *Engine) addToZip(ctx context.Context, zw *zip.Writer, relPath, name string) error {
	reader, err := e.storage.Open(ctx, relPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", name, err)
	}
	return nil
}

// walk visits every entry below dir depth-first, skipping recycle bins.
func (e *Engine) walk(ctx context.Context, dir string, visit func(*backends.Entry)) error {
	return e.walkEntries(ctx, dir, func(child *backends.Entry) error {
		visit(child)
		return nil
	})
}

func (e *Engine) walkEntries(ctx context.Context, dir string, visit func(*backends.Entry) error) error {
	children, err := e.storage.List(ctx, dir)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.Name == RecycleBinName {
			continue
		}
		if err := visit(child); err != nil {
			return err
		}
		if child.IsDir {
			if err := e.walkEntries(ctx, child.Path, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// availableName finds a collision-free name inside dir following the
// "name (1).ext", "name (2).ext" convention.
func (e *Engine) availableName(ctx context.Context, dir, name string) (string, error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; ; i++ {
		exists, err := e.storage.Exists(ctx, path.Join(dir, candidate))
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
	}
}

func (e *Engine) observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.FileOperationsTotal.WithLabelValues(op, e.backendType).Inc()
		metrics.FileOperationDuration.WithLabelValues(op, e.backendType).Observe(time.Since(start).Seconds())
	}
}
