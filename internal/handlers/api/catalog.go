package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"econstats/internal/catalog"
	"econstats/internal/models"
	"econstats/internal/plancatalog"
	"econstats/internal/registry"
	"econstats/internal/validation"
)

// CatalogHandler exposes the plan and series catalogs.
type CatalogHandler struct {
	registry *registry.Registry
	plans    *plancatalog.Catalog
	series   *catalog.Catalog
}

// NewCatalogHandler creates a new API catalog handler.
func NewCatalogHandler(reg *registry.Registry, plans *plancatalog.Catalog, series *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{registry: reg, plans: plans, series: series}
}

// List returns plan keys grouped by topic bucket.
func (h *CatalogHandler) List(c fiber.Ctx) error {
	buckets := h.plans.Buckets()
	out := make([]models.BucketKeys, len(buckets))
	for i, b := range buckets {
		out[i] = models.BucketKeys{Name: string(b), Keys: h.plans.Keys(b)}
	}

	return jsonSuccess(c, models.CatalogResponse{
		Plans:   h.registry.Len(),
		Series:  h.series.Len(),
		Buckets: out,
	})
}

// Plan returns the curated plan for ?q= by exact lookup.
func (h *CatalogHandler) Plan(c fiber.Ctx) error {
	q := c.Query("q", "")
	if valid, msg := validation.ValidateQuery(q); !valid {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	key, plan, err := h.registry.MustGetPlan(q)
	if err != nil {
		if errors.Is(err, registry.ErrPlanNotFound) {
			return jsonError(c, fiber.StatusNotFound, "plan not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to look up plan")
	}

	return jsonSuccess(c, models.PlanResponse{Key: key, Plan: plan})
}

// Series returns the catalog descriptor for a series id.
func (h *CatalogHandler) Series(c fiber.Ctx) error {
	id := validation.NormalizeSeriesID(c.Params("id"))
	if !validation.ValidateSeriesID(id) {
		return jsonError(c, fiber.StatusBadRequest, "invalid series id")
	}

	desc, ok := h.series.Lookup(id)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "series not found")
	}

	return jsonSuccess(c, desc)
}
