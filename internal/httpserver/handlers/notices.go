package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/flare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/flare/internal/session"
)

type noticesResponse struct {
	Notices []session.Notice `json:"notices"`
}

type dismissResponse struct {
	Dismissed int `json:"dismissed"`
}

// Notices lists pending failure notices.
func Notices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFor(d, r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		notices, err := s.Notices(r.Context())
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, noticesResponse{Notices: notices})
	}
}

// DismissNotices clears pending notices.
func DismissNotices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFor(d, r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		n, err := s.DismissNotices(r.Context())
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, dismissResponse{Dismissed: n})
	}
}

// Draft returns the last unsaved add-form input.
func Draft(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFor(d, r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		draft, err := s.Draft(r.Context())
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, draft)
	}
}
