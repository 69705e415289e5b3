package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/speaax/delve-companion/internal/api/handlers"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	systemHandler := handlers.NewSystemHandler(s.wsHub.ClientCount)

	// Unversioned endpoints
	s.router.Get("/health", systemHandler.Health)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Get("/version", systemHandler.GetVersion)

		profileHandler := handlers.NewProfileHandler(s.tracker, s.displayModes)
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", profileHandler.ListModes)
			r.Post("/{mode}/manual/reset", profileHandler.ResetManual)
			r.Get("/{mode}/{view}", profileHandler.GetProfile)
			r.Get("/{mode}/{view}/summary", profileHandler.GetSummary)
			r.Get("/{mode}/{view}/chart", profileHandler.GetChart)
		})

		eventHandler := handlers.NewEventHandler(s.tracker)
		r.Route("/events", func(r chi.Router) {
			r.Post("/floor", eventHandler.RecordFloor)
			r.Post("/drop", eventHandler.RecordDrop)
		})
		r.Route("/sync", func(r chi.Router) {
			r.Post("/kills", eventHandler.SyncKills)
			r.Post("/drops", eventHandler.SyncDrops)
		})

		historyHandler := handlers.NewHistoryHandler(s.history)
		r.Get("/history", historyHandler.GetHistory)

		dropRateHandler := handlers.NewDropRateHandler(s.tracker.Table())
		r.Get("/droprates", dropRateHandler.GetDropRates)
	})
}
