package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/core"
	qlog "github.com/quickserve/quickserve/core/log"
	authMiddleware "github.com/quickserve/quickserve/server/middleware"
)

// DownloadFile handles GET /download?path=, streaming the file body.
func DownloadFile(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authMiddleware.IdentityFrom(r.Context())
		if !ok {
			SendErrorResponse(w, logger, nil, http.StatusInternalServerError)
			return
		}

		reader, entry, err := engine.Download(r.Context(), id, r.URL.Query().Get("path"))
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}
		defer reader.Close()

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Name))
		if entry.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(entry.Size, 10))
		}

		if _, err := io.Copy(w, reader); err != nil {
			// Headers are already out; all we can do is log.
			logger.Warn("download stream interrupted",
				zap.String("path", qlog.Path(entry.Path)),
				zap.Error(err))
		}
	}
}
