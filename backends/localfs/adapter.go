// Package localfs implements the backends.Storage interface on top of
// a local directory.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quickserve/quickserve/backends"
	"github.com/quickserve/quickserve/internal/pathutil"
)

// Adapter serves files from a directory on the local filesystem.
type Adapter struct {
	rootPath string
}

// NewAdapter creates a local filesystem adapter rooted at rootPath.
func NewAdapter(rootPath string) (*Adapter, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %s: %w", rootPath, err)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root path %s: %w", abs, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("root path %s is not accessible: %w", abs, err)
	}

	return &Adapter{rootPath: abs}, nil
}

// Root returns the absolute share root the adapter serves.
func (a *Adapter) Root() string {
	return a.rootPath
}

// Open opens a file for reading.
func (a *Adapter) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	fullPath, err := pathutil.SafeJoin(a.rootPath, relPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backends.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w", relPath, err)
	}
	return file, nil
}

// Create writes a new file from the reader, refusing to overwrite.
func (a *Adapter) Create(ctx context.Context, relPath string, reader io.Reader) error {
	fullPath, err := pathutil.SafeJoin(a.rootPath, relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return backends.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create %s: %w", relPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to write file content: %w", err)
	}
	return nil
}

// Delete permanently removes a file or directory tree.
func (a *Adapter) Delete(ctx context.Context, relPath string) error {
	fullPath, err := pathutil.SafeJoin(a.rootPath, relPath)
	if err != nil {
		return err
	}
	if fullPath == a.rootPath {
		return fmt.Errorf("refusing to delete share root")
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return backends.ErrNotFound
		}
		return fmt.Errorf("failed to stat %s: %w", relPath, err)
	}

	if err := os.RemoveAll(fullPath); err != nil {
		return fmt.Errorf("failed to delete %s: %w", relPath, err)
	}
	return nil
}

// Rename moves a file or directory tree inside the share root.
func (a *Adapter) Rename(ctx context.Context, oldPath, newPath string) error {
	oldFull, err := pathutil.SafeJoin(a.rootPath, oldPath)
	if err != nil {
		return err
	}
	newFull, err := pathutil.SafeJoin(a.rootPath, newPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(newFull), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if err := os.Rename(oldFull, newFull); err != nil {
		if os.IsNotExist(err) {
			return backends.ErrNotFound
		}
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}

// Stat returns the entry for a path.
func (a *Adapter) Stat(ctx context.Context, relPath string) (*backends.Entry, error) {
	fullPath, err := pathutil.SafeJoin(a.rootPath, relPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backends.ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat %s: %w", relPath, err)
	}
	return a.entryFromInfo(relPath, info), nil
}

// List returns the immediate children of a directory, folders first,
// sorted case-insensitively by name.
func (a *Adapter) List(ctx context.Context, relPath string) ([]*backends.Entry, error) {
	fullPath, err := pathutil.SafeJoin(a.rootPath, relPath)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backends.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", relPath, err)
	}

	entries := make([]*backends.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info.
			continue
		}
		childRel := de.Name()
		if relPath != "" {
			childRel = path.Join(relPath, de.Name())
		}
		entries = append(entries, a.entryFromInfo(childRel, info))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	return entries, nil
}

// Exists reports whether a path is present.
func (a *Adapter) Exists(ctx context.Context, relPath string) (bool, error) {
	fullPath, err := pathutil.SafeJoin(a.rootPath, relPath)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", relPath, err)
	}
	return true, nil
}

// Close releases resources held by the adapter.
func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) entryFromInfo(relPath string, info os.FileInfo) *backends.Entry {
	size := info.Size()
	if info.IsDir() {
		size = 0
	}
	return &backends.Entry{
		Name:    info.Name(),
		Path:    relPath,
		IsDir:   info.IsDir(),
		Size:    size,
		ModTime: info.ModTime(),
	}
}
