// Package backends provides storage adapters for the QuickServe share
// root. The default adapter serves a local directory; an S3 adapter
// lets the share root live in a bucket instead.
package backends

import (
	"context"
	"errors"
	"io"
	"time"
)

// Common storage errors, passed through the core unchanged.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Entry describes a single file or directory inside the share root.
// Path is always root-relative with forward slashes.
type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Storage is the filesystem collaborator behind the operation gate.
// All paths are sanitized root-relative paths; adapters are expected
// to enforce containment against their own root as a second line of
// defense.
type Storage interface {
	// Open opens a file for reading.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Create writes a new file from the reader. It fails with
	// ErrAlreadyExists if the path is taken.
	Create(ctx context.Context, path string, reader io.Reader) error

	// Delete permanently removes a file or directory tree.
	Delete(ctx context.Context, path string) error

	// Rename moves a file or directory tree, creating missing parent
	// directories of the destination.
	Rename(ctx context.Context, oldPath, newPath string) error

	// Stat returns the entry for a path.
	Stat(ctx context.Context, path string) (*Entry, error)

	// List returns the immediate children of a directory.
	List(ctx context.Context, path string) ([]*Entry, error)

	// Exists reports whether a path is present.
	Exists(ctx context.Context, path string) (bool, error)

	// Close releases any resources held by the adapter.
	Close() error
}
