package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/flare/internal/logger"
)

// Jump redirects to the session's bookmark best matching q.
func Jump(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFor(d, r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query"})
			return
		}

		records, err := s.Snapshot(r.Context())
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		b, ok := domain.BestJump(query, records)
		if !ok {
			d.Logger.Debug("no bookmark matched", logger.String("query", query))
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no bookmark matched"})
			return
		}

		d.Logger.Info("bookmark jump",
			logger.String("query", query),
			logger.String("bookmark_id", b.ID),
			logger.String("url", b.URL))
		http.Redirect(w, r, b.URL, http.StatusFound)
	}
}
