package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/httpserver/deps"
)

type statsResponse struct {
	domain.Stats
	FolderNames []string `json:"folderNames"`
}

// Stats returns the dashboard counters and the domain folders.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFor(d, r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		records, err := s.Snapshot(r.Context())
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{
			Stats:       domain.ComputeStats(records, d.Now()),
			FolderNames: domain.Folders(records),
		})
	}
}
