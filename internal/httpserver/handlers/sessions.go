package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/flare/internal/httpserver/deps"
)

type loginRequest struct {
	UserID string `json:"userId"`
}

type sessionResponse struct {
	TabID  string `json:"tabId"`
	UserID string `json:"userId"`
}

// Login opens a session (one tab) for a user.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}

		s, err := d.Sessions.Login(r.Context(), req.UserID)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse{TabID: s.TabID(), UserID: s.UserID()})
	}
}

// Logout tears the session down.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Sessions.Logout(r.Context(), chi.URLParam(r, "tabID")); err != nil {
			writeError(w, d, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
