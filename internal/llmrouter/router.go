// Package llmrouter asks a language model to pick a curated plan (or raw
// series) for a query, given the compact plan catalog.
package llmrouter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"econstats/internal/cache"
	"econstats/internal/llm"
	"econstats/internal/metrics"
	"econstats/internal/plancatalog"
	"econstats/internal/registry"
)

// Decision cache defaults
const (
	DefaultCacheTTL        = time.Hour
	DefaultCacheEntries    = 300
	DefaultCacheEvictBatch = 75

	// DefaultDeadline bounds a routing call across all retry attempts.
	DefaultDeadline = 35 * time.Second

	maxDecisionTokens = 400
)

// Decision is the model's structured routing answer.
type Decision struct {
	PlanKey                 string   `json:"plan_key"`
	SecondaryPlanKey        string   `json:"secondary_plan_key"`
	CustomSeries            []string `json:"custom_series"`
	ShowYoY                 *bool    `json:"show_yoy"`
	IsComparison            bool     `json:"is_comparison"`
	NeedsFedSEP             bool     `json:"needs_fed_sep"`
	NeedsRecessionScorecard bool     `json:"needs_recession_scorecard"`
	NeedsCAPE               bool     `json:"needs_cape"`
	IsMarketQuery           bool     `json:"is_market_query"`
	Explanation             string   `json:"explanation"`
}

// Empty reports whether the decision names neither a plan nor series.
func (d *Decision) Empty() bool {
	return d == nil || (strings.TrimSpace(d.PlanKey) == "" && len(d.CustomSeries) == 0)
}

// Router makes single-call routing decisions and caches them.
type Router struct {
	client   llm.Completer
	catalog  *plancatalog.Catalog
	cache    *cache.Cache[Decision]
	deadline time.Duration
	logger   *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithCache replaces the decision cache.
func WithCache(c *cache.Cache[Decision]) Option {
	return func(r *Router) {
		r.cache = c
	}
}

// WithDeadline bounds each routing call.
func WithDeadline(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.deadline = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewDecisionCache creates the default decision cache.
func NewDecisionCache() *cache.Cache[Decision] {
	return cache.New[Decision](DefaultCacheTTL, DefaultCacheEntries,
		cache.WithName("llm_decisions"),
		cache.WithEvictBatch(DefaultCacheEvictBatch),
	)
}

// New creates a router. A nil client makes the router unavailable.
func New(client llm.Completer, catalog *plancatalog.Catalog, opts ...Option) *Router {
	r := &Router{
		client:   client,
		catalog:  catalog,
		deadline: DefaultDeadline,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewDecisionCache()
	}
	return r
}

// Available reports whether a model client is configured.
func (r *Router) Available() bool {
	return r != nil && r.client != nil
}

// Cache returns the decision cache.
func (r *Router) Cache() *cache.Cache[Decision] {
	return r.cache
}

// Outcome says how a routing call ended.
type Outcome string

// Routing outcomes
const (
	OutcomeOK          Outcome = "ok"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeFailed      Outcome = "failed"
	OutcomeNoMatch     Outcome = "no_match"
)

// Down reports whether the model could not be consulted at all, as opposed
// to answering with no plan.
func (o Outcome) Down() bool {
	return o == OutcomeUnavailable || o == OutcomeFailed
}

// Route asks the model for a decision. It returns false when the model is
// unavailable, fails, or answers with nothing usable.
func (r *Router) Route(ctx context.Context, query string, history []Turn) (*Decision, bool) {
	d, outcome := r.Decide(ctx, query, history)
	return d, outcome == OutcomeOK
}

// Decide is Route with the reason for a missing decision. Decisions for
// queries without history are cached by normalized query.
//
// The call is detached from ctx cancellation so a decision that lands
// after the caller gives up still reaches the cache.
func (r *Router) Decide(ctx context.Context, query string, history []Turn) (*Decision, Outcome) {
	if !r.Available() {
		return nil, OutcomeUnavailable
	}

	key := registry.Normalize(query)
	cacheable := key != "" && len(history) == 0
	if cacheable {
		if d, ok := r.cache.Get(key); ok {
			return &d, OutcomeOK
		}
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.deadline)
	defer cancel()

	resp, err := r.client.Complete(callCtx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(query, r.catalog.Text(), history),
		Temperature: llm.Temperature(0.1),
		MaxTokens:   maxDecisionTokens,
	})
	if err != nil {
		if errors.Is(err, llm.ErrNoCredentials) {
			metrics.RecordLLMCall("router", "unavailable")
			r.logger.Warn("LLM routing unavailable", "query", query, "error", err)
			return nil, OutcomeUnavailable
		}
		metrics.RecordLLMCall("router", "error")
		r.logger.Warn("LLM routing failed", "query", query, "error", err)
		return nil, OutcomeFailed
	}

	var d Decision
	if err := llm.DecodeJSON(resp.Content, &d); err != nil {
		metrics.RecordLLMCall("router", "unparseable")
		r.logger.Warn("LLM routing returned unparseable response", "query", query, "error", err)
		return nil, OutcomeFailed
	}
	metrics.RecordLLMCall("router", "ok")

	d.PlanKey = strings.TrimSpace(d.PlanKey)
	d.SecondaryPlanKey = strings.TrimSpace(d.SecondaryPlanKey)
	if d.Empty() {
		r.logger.Info("LLM routing found no plan", "query", query, "explanation", d.Explanation)
		return nil, OutcomeNoMatch
	}

	if cacheable {
		r.cache.Set(key, d)
	}
	r.logger.Debug("LLM routing decision",
		"query", query,
		"plan_key", d.PlanKey,
		"secondary_plan_key", d.SecondaryPlanKey,
		"custom_series", d.CustomSeries,
		"request_id", resp.RequestID,
	)
	return &d, OutcomeOK
}
