package api

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"

	"econstats/internal/llmrouter"
	"econstats/internal/router"
	"econstats/internal/validation"
)

// RouteHandler exposes the master router.
type RouteHandler struct {
	router *router.Router
}

// NewRouteHandler creates a new API route handler.
func NewRouteHandler(r *router.Router) *RouteHandler {
	return &RouteHandler{router: r}
}

// Route resolves a query to series without fetching data. GET takes the
// query in ?q=; POST takes {"query": ..., "history": [...]}.
func (h *RouteHandler) Route(c fiber.Ctx) error {
	var body struct {
		Query   string           `json:"query"`
		History []llmrouter.Turn `json:"history"`
	}
	if c.Method() == fiber.MethodPost {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid request body")
		}
	} else {
		body.Query = c.Query("q", "")
	}

	if valid, msg := validation.ValidateQuery(body.Query); !valid {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	res := h.router.RouteWithHistory(c.Context(), strings.TrimSpace(body.Query), recentTurns(body.History))
	return jsonSuccess(c, res)
}

// recentTurns keeps the last turns the router will use.
func recentTurns(history []llmrouter.Turn) []llmrouter.Turn {
	if len(history) > llmrouter.MaxHistoryTurns {
		history = history[len(history)-llmrouter.MaxHistoryTurns:]
	}
	return history
}
