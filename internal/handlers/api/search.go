package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"econstats/internal/search"
	"econstats/internal/validation"
)

// SearchHandler runs full searches: routing, data, charts and summary.
type SearchHandler struct {
	svc    *search.Service
	logger *slog.Logger
}

// NewSearchHandler creates a new API search handler.
func NewSearchHandler(svc *search.Service, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{svc: svc, logger: logger}
}

// Search answers a query with charts and a narrative summary.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var req search.Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if valid, msg := validation.ValidateQuery(req.Query); !valid {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}
	if req.Years < 0 || req.Years > search.MaxYears {
		return jsonError(c, fiber.StatusBadRequest, "years must be between 1 and 50")
	}
	req.Query = strings.TrimSpace(req.Query)
	req.History = recentTurns(req.History)

	resp, err := h.svc.Search(c.Context(), req)
	if err != nil {
		if errors.Is(err, search.ErrNoDataSource) {
			return jsonError(c, fiber.StatusServiceUnavailable, "no data source configured")
		}
		h.logger.Error("Search failed", "query", req.Query, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "search failed")
	}

	return jsonSuccess(c, resp)
}
