package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"econstats/internal/handlers/api"
)

// Handlers groups the API handlers the server exposes.
type Handlers struct {
	Route   *api.RouteHandler
	Search  *api.SearchHandler
	Catalog *api.CatalogHandler
	Health  *api.HealthHandler
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(h Handlers) {
	s.App.Get("/healthz", h.Health.Liveness)
	s.App.Get("/readyz", h.Health.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := s.App.Group("/api")
	v1.Get("/route", h.Route.Route)
	v1.Post("/route", h.Route.Route)
	v1.Post("/search", h.Search.Search)
	v1.Get("/catalog", h.Catalog.List)
	v1.Get("/plan", h.Catalog.Plan)
	v1.Get("/series/:id", h.Catalog.Series)
}
