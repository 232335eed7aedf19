package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/core"
	authMiddleware "github.com/quickserve/quickserve/server/middleware"
)

// FileEntry is the wire shape of a directory entry.
type FileEntry struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Type         string `json:"type"` // "file" or "folder"
	DateModified string `json:"date_modified"`
	Size         int64  `json:"size"`
}

// DirectoryResponse is the wire shape of a directory listing.
type DirectoryResponse struct {
	CurrentDir string      `json:"current_dir"`
	ParentDir  string      `json:"parent_dir"`
	Files      []FileEntry `json:"files"`
}

// ListDirectory handles GET /files?path=.
func ListDirectory(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authMiddleware.IdentityFrom(r.Context())
		if !ok {
			SendErrorResponse(w, logger, nil, http.StatusInternalServerError)
			return
		}

		listing, err := engine.List(r.Context(), id, r.URL.Query().Get("path"))
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		files := make([]FileEntry, 0, len(listing.Entries))
		for _, e := range listing.Entries {
			entryType := "file"
			if e.IsDir {
				entryType = "folder"
			}
			files = append(files, FileEntry{
				Name:         e.Name,
				Path:         e.Path,
				Type:         entryType,
				DateModified: entryTimestamp(e.ModTime),
				Size:         e.Size,
			})
		}

		SendJSONResponse(w, DirectoryResponse{
			CurrentDir: listing.CurrentDir,
			ParentDir:  listing.ParentDir,
			Files:      files,
		})
	}
}

// DeleteFile handles DELETE /files?path=.
func DeleteFile(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authMiddleware.IdentityFrom(r.Context())
		if !ok {
			SendErrorResponse(w, logger, nil, http.StatusInternalServerError)
			return
		}

		if err := engine.Delete(r.Context(), id, r.URL.Query().Get("path")); err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		SendJSONResponse(w, map[string]string{
			"status":  "success",
			"message": "deleted",
		})
	}
}

// entryTimestamp formats a modification time the way the frontend
// expects, with the zero time rendered empty (S3 prefixes carry none).
func entryTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
