package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/httpserver/deps"
)

type addRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type bookmarksResponse struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
	Count     int               `json:"count"`
}

// ListBookmarks renders the session's collection through the view
// parameters q, domain, date and sort.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
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

		q := r.URL.Query()
		view := domain.View{
			Query:  q.Get("q"),
			Domain: q.Get("domain"),
			Date:   q.Get("date"),
			Sort:   q.Get("sort"),
		}
		out := view.Apply(records, d.Now())
		writeJSON(w, http.StatusOK, bookmarksResponse{Bookmarks: out, Count: len(out)})
	}
}

// AddBookmark runs the Add command and returns the confirmed record.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFor(d, r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		var req addRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}

		b, err := s.Add(r.Context(), req.Title, req.URL)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

// DeleteBookmark runs the Delete command.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFor(d, r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		if err := s.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, d, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
