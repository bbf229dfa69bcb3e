package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/flare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/flare/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/flare/internal/httpserver/mw"
)

func init() { Register(registerSessions) }

func registerSessions(r chi.Router, d deps.Deps) {
	writes := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateBurst,
		RefillPerIPPerMin: d.RatePerMinute,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))

		r.With(writes).Post("/", handlers.Login(d))
		r.Route("/{tabID}", func(r chi.Router) {
			r.Delete("/", handlers.Logout(d))

			r.Get("/bookmarks", handlers.ListBookmarks(d))
			r.With(writes).Post("/bookmarks", handlers.AddBookmark(d))
			r.With(writes).Delete("/bookmarks/{id}", handlers.DeleteBookmark(d))

			r.Get("/stats", handlers.Stats(d))
			r.Get("/notices", handlers.Notices(d))
			r.Delete("/notices", handlers.DismissNotices(d))
			r.Get("/draft", handlers.Draft(d))
			r.Get("/jump", handlers.Jump(d))
		})
	})
}
