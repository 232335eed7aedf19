// Package core implements the permission-gated file operations of
// QuickServe. Every operation requires a verified identity, checks
// the matching permission flag, confines the target path to the share
// root, and only then touches the storage backend.
package core

import (
	"errors"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/backends"
	"github.com/quickserve/quickserve/internal/pathutil"
)

// RecycleBinName is the directory soft-deleted items are moved into.
// It is invisible to listings and search, and user-supplied paths that
// reach into it are rejected outright.
const RecycleBinName = ".recycle_bin"

// ErrAccessDenied is the external face of every containment failure.
// Callers are not told whether the path traversed, touched a recycle
// bin, or was otherwise malformed.
var ErrAccessDenied = errors.New("access denied")

// Engine gates all file operations against a single storage backend.
// It holds no locks of its own; the brute-force guard is the only
// mutable shared state in the system and lives in the auth package.
type Engine struct {
	storage       backends.Storage
	backendType   string
	useRecycleBin bool
	logger        *zap.Logger
}

// NewEngine creates an operation gate over the given backend.
func NewEngine(storage backends.Storage, backendType string, useRecycleBin bool, logger *zap.Logger) *Engine {
	return &Engine{
		storage:       storage,
		backendType:   backendType,
		useRecycleBin: useRecycleBin,
		logger:        logger,
	}
}

// resolve sanitizes a user-supplied path and rejects anything that
// escapes the root or reaches into a recycle bin. Containment failures
// never reach the storage backend.
func (e *Engine) resolve(raw string) (string, error) {
	sanitized, err := pathutil.Sanitize(raw)
	if err != nil {
		return "", ErrAccessDenied
	}
	if pathutil.ContainsSegment(sanitized, RecycleBinName) {
		return "", ErrAccessDenied
	}
	return sanitized, nil
}
