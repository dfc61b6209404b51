package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-verify/internal/web/handlers"
	"github.com/kozaktomas/face-verify/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	verifyHandler := handlers.NewVerifyHandler(s.pipeline, s.logger)
	enrollmentsHandler := handlers.NewEnrollmentsHandler(s.pipeline, s.logger)
	statsHandler := handlers.NewStatsHandler(s.pipeline, s.probes, s.logger)
	configHandler := handlers.NewConfigHandler(s.config)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", statsHandler.Status)
		r.Get("/stats", statsHandler.Get)
		r.Get("/config", configHandler.Get)

		r.Get("/enrollments/{key}", enrollmentsHandler.Get)
		r.Delete("/sessions/{id}", verifyHandler.DismissSession)

		// Image processing routes are rate limited per client
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.limiter))

			r.With(middleware.WithSession).Post("/verify", verifyHandler.Verify)
			r.Post("/enrollments", enrollmentsHandler.Create)
			r.Delete("/enrollments/{key}", enrollmentsHandler.Delete)
		})
	})
}
