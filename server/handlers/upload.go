package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/core"
	authMiddleware "github.com/quickserve/quickserve/server/middleware"
)

// maxUploadMemory bounds the multipart parser's in-memory buffer;
// larger bodies spill to temp files.
const maxUploadMemory = 32 << 20

// UploadResponse reports where an uploaded file was stored. The path
// can differ from the request when a collision was renamed around.
type UploadResponse struct {
	Status string `json:"status"`
	Path   string `json:"path"`
}

// UploadFile handles POST /upload with a multipart body carrying a
// "path" field (target directory) and a "file" part.
func UploadFile(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authMiddleware.IdentityFrom(r.Context())
		if !ok {
			SendErrorResponse(w, logger, nil, http.StatusInternalServerError)
			return
		}

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		storedPath, err := engine.Upload(r.Context(), id, r.FormValue("path"), header.Filename, file)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		SendJSONResponse(w, UploadResponse{
			Status: "success",
			Path:   storedPath,
		})
	}
}
