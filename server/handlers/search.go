package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/core"
	authMiddleware "github.com/quickserve/quickserve/server/middleware"
)

// SearchResponse carries the matches of a recursive name search.
type SearchResponse struct {
	Query   string      `json:"query"`
	Results []FileEntry `json:"results"`
}

// SearchFiles handles GET /search?q=&path=.
func SearchFiles(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authMiddleware.IdentityFrom(r.Context())
		if !ok {
			SendErrorResponse(w, logger, nil, http.StatusInternalServerError)
			return
		}

		query := r.URL.Query().Get("q")
		matches, err := engine.Search(r.Context(), id, r.URL.Query().Get("path"), query)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		results := make([]FileEntry, 0, len(matches))
		for _, e := range matches {
			entryType := "file"
			if e.IsDir {
				entryType = "folder"
			}
			results = append(results, FileEntry{
				Name:         e.Name,
				Path:         e.Path,
				Type:         entryType,
				DateModified: entryTimestamp(e.ModTime),
				Size:         e.Size,
			})
		}

		SendJSONResponse(w, SearchResponse{
			Query:   query,
			Results: results,
		})
	}
}
