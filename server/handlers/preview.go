package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/core"
	authMiddleware "github.com/quickserve/quickserve/server/middleware"
)

// PreviewFile handles GET /preview?path=, returning the head of the
// file with its detected content type so the browser can render it
// inline.
func PreviewFile(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authMiddleware.IdentityFrom(r.Context())
		if !ok {
			SendErrorResponse(w, logger, nil, http.StatusInternalServerError)
			return
		}

		preview, err := engine.Preview(r.Context(), id, r.URL.Query().Get("path"))
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", preview.ContentType)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if preview.Truncated {
			w.Header().Set("X-Preview-Truncated", "true")
		}
		w.Write(preview.Data)
	}
}
