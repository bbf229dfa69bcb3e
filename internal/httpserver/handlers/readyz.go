package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/flare/internal/httpserver/deps"
)

// checkTimeout bounds each readiness probe.
const checkTimeout = 2 * time.Second

type componentStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Store      string                     `json:"store,omitempty"`
	Sync       string                     `json:"sync,omitempty"`
	Sessions   int                        `json:"sessions"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz runs every readiness probe. Any failing probe yields 503.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{
			Ready:      true,
			Store:      d.StoreBackend,
			Sync:       d.SyncBackend,
			Components: make(map[string]componentStatus, len(d.Checks)),
		}
		if d.Sessions != nil {
			resp.Sessions = d.Sessions.Len()
		}

		for _, c := range d.Checks {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			err := c.Probe(ctx)
			cancel()

			st := componentStatus{OK: err == nil}
			if err != nil {
				st.Error = err.Error()
				resp.Ready = false
			}
			resp.Components[c.Name] = st
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
