package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/superadmin/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	cookies := cookieOptions{secure: d.CookieSecure, ttl: d.SessionTTL}
	requireAdmin := adminAuthMiddleware(d.Sessions)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Super Admin API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, d.Checks).Routes())
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", handleLogin(logger, d.Admins, d.Sessions, cookies))
		r.Post("/logout", handleLogout(logger, d.Sessions, cookies))
		r.With(requireAdmin).Get("/fetch", handleFetchAdmin(logger, d.Admins))
		r.With(requireAdmin).Post("/create-admin", handleCreateAdmin(logger, d.Admins))
	})

	r.Route("/games", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Post("/create", handleRegisterGame(logger, d.Games))
		r.Get("/fetch-all", handleListGames(logger, d.Games))
	})

	r.Route("/sessions", func(r chi.Router) {
		// Game servers push here without an admin cookie.
		r.Post("/update", handleInboundUpdate(logger, d.Lifecycle))

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/", handleListSessions(logger, d.Lifecycle))
			r.Post("/create", handleCreateSession(logger, d.Lifecycle))
			r.Get("/stats", handleSessionStats(logger, d.Lifecycle))
			r.Get("/events", handleEvents(d.Broker))
			r.Post("/edit", handleEditSession(logger, d.Lifecycle))
			r.Post("/end", handleEndSession(logger, d.Lifecycle))
			r.Post("/custom-game-request", handleCustomGameRequest(logger, d.Lifecycle))
			r.Get("/{sessionId}", handleGetSession(logger, d.Lifecycle))
		})
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
