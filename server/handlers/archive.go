package handlers

import (
	"fmt"
	"net/http"
	"path"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/core"
	qlog "github.com/quickserve/quickserve/core/log"
	authMiddleware "github.com/quickserve/quickserve/server/middleware"
)

// ArchiveDirectory handles GET /archive?path=, streaming a zip of the
// directory (or a single file) to the client.
func ArchiveDirectory(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authMiddleware.IdentityFrom(r.Context())
		if !ok {
			SendErrorResponse(w, logger, nil, http.StatusInternalServerError)
			return
		}

		rawPath := r.URL.Query().Get("path")
		name := path.Base(rawPath)
		if name == "." || name == "/" || name == "" {
			name = "share"
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".zip"))

		if err := engine.Archive(r.Context(), id, rawPath, w); err != nil {
			// Permission and path checks fail before the first write,
			// so the error response still reaches the client unless
			// the stream itself broke mid-zip.
			logger.Warn("archive request failed",
				zap.String("path", qlog.Path(rawPath)),
				zap.Error(err))
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}
	}
}
