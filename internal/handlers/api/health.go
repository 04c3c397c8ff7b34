package api

import (
	"github.com/gofiber/fiber/v3"

	"econstats/internal/cache"
	"econstats/internal/metrics"
	"econstats/internal/models"
)

// HealthHandler handles liveness and readiness probes.
type HealthHandler struct {
	version      string
	capabilities map[string]bool
	ready        func() error
	caches       []metrics.StatsSource
}

// NewHealthHandler creates a new API health handler. ready may be nil.
func NewHealthHandler(version string, capabilities map[string]bool, ready func() error, caches ...metrics.StatsSource) *HealthHandler {
	return &HealthHandler{version: version, capabilities: capabilities, ready: ready, caches: caches}
}

// Liveness handles /healthz. Returns 200 OK while the process is serving.
func (h *HealthHandler) Liveness(c fiber.Ctx) error {
	stats := make([]cache.Stats, len(h.caches))
	for i, src := range h.caches {
		stats[i] = src.Stats()
	}

	return c.JSON(models.HealthResponse{
		Status:       "ok",
		Version:      h.version,
		Capabilities: h.capabilities,
		Caches:       stats,
	})
}

// Readiness handles /readyz. Returns 503 if the readiness check fails.
func (h *HealthHandler) Readiness(c fiber.Ctx) error {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
