package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/flare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/flare/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/flare/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	only := mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
	r.With(only).Get("/healthz", handlers.Healthz(d))
	r.With(only).Get("/readyz", handlers.Readyz(d))
}
