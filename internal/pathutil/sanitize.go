// Package pathutil provides secure path handling for QuickServe.
// Every user-supplied path is sanitized into a root-relative,
// forward-slash form before it is allowed anywhere near the
// filesystem, and joins against the share root are containment-checked.
package pathutil

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// ErrTraversal is returned when a path would escape the share root.
var ErrTraversal = errors.New("path escapes server root")

// Sanitize converts arbitrary user input into a root-relative path.
// Backslashes are normalized to forward slashes, leading slashes are
// stripped, and "" or "/" mean the root itself (returned as "").
// Inputs carrying null bytes, control characters, or more ".."
// segments than directory levels are rejected with ErrTraversal.
func Sanitize(raw string) (string, error) {
	if strings.ContainsRune(raw, 0) {
		return "", ErrTraversal
	}
	for _, r := range raw {
		if r < 32 && r != '\t' {
			return "", ErrTraversal
		}
	}

	// Windows-style separators are treated as separators, never as
	// literal name characters.
	normalized := strings.ReplaceAll(raw, "\\", "/")
	normalized = strings.TrimLeft(normalized, "/")
	if normalized == "" {
		return "", nil
	}

	// Walk the segments and track depth so that ".." can never climb
	// above the root, regardless of how it is interleaved.
	depth := 0
	for _, seg := range strings.Split(normalized, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			depth--
			if depth < 0 {
				return "", ErrTraversal
			}
		default:
			depth++
		}
	}

	cleaned := path.Clean(normalized)
	if cleaned == "." {
		return "", nil
	}
	return cleaned, nil
}

// SafeJoin joins a sanitized root-relative path onto the share root
// and verifies containment. The check is separator-aware: the result
// must be the root itself or start with root plus a path separator,
// so a sibling like "/srv/share-evil" can never pass for "/srv/share".
func SafeJoin(root, rel string) (string, error) {
	cleanRel, err := Sanitize(rel)
	if err != nil {
		return "", err
	}

	cleanRoot := filepath.Clean(root)
	joined := filepath.Join(cleanRoot, filepath.FromSlash(cleanRel))

	if joined != cleanRoot && !strings.HasPrefix(joined, cleanRoot+string(filepath.Separator)) {
		return "", ErrTraversal
	}
	return joined, nil
}

// Parent returns the root-relative parent of a sanitized path, or ""
// when the path is already at the root.
func Parent(sanitized string) string {
	if sanitized == "" {
		return ""
	}
	idx := strings.LastIndexByte(sanitized, '/')
	if idx < 0 {
		return ""
	}
	return sanitized[:idx]
}

// ContainsSegment reports whether any path segment of a sanitized
// path equals name. Used to keep recycle-bin internals unreachable
// through user-supplied paths.
func ContainsSegment(sanitized, name string) bool {
	if sanitized == "" {
		return false
	}
	for _, seg := range strings.Split(sanitized, "/") {
		if seg == name {
			return true
		}
	}
	return false
}
