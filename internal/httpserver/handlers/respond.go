package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/session"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps command and lookup errors onto HTTP statuses.
func statusFor(err error) int {
	var pe *session.PersistenceError
	switch {
	case errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrEmptyURL),
		errors.Is(err, session.ErrEmptyUser):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, session.ErrProvisional):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	case errors.As(err, &pe):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, d deps.Deps, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		d.Logger.Warn("request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err),
		)
	}
	msg := err.Error()
	var pe *session.PersistenceError
	if errors.As(err, &pe) {
		// store internals stay in the logs
		msg = "bookmark could not be saved"
		if pe.Op == session.OpDelete {
			msg = "bookmark could not be deleted"
		}
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// sessionFor resolves the {tabID} URL parameter.
func sessionFor(d deps.Deps, r *http.Request) (*session.Session, error) {
	return d.Sessions.Get(chi.URLParam(r, "tabID"))
}
