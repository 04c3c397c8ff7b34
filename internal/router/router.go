// Package router resolves a free-text query to series through an ordered
// chain of stages: routing cache, exact plan, LLM decision, fuzzy plan
// match, secondary classifier. The first stage that yields series wins.
// Resolved results are then checked against deterministic keyword rules and
// enriched with special-topic payloads.
package router

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"econstats/internal/cache"
	"econstats/internal/enrich"
	"econstats/internal/llmrouter"
	"econstats/internal/metrics"
	"econstats/internal/models"
	"econstats/internal/registry"
	"econstats/internal/validation"
)

// Routing cache defaults
const (
	DefaultCacheTTL     = time.Hour
	DefaultCacheEntries = 1000
)

// NoMatchExplanation accompanies an empty result.
const NoMatchExplanation = "No matching data series found for this query."

var tracer = otel.Tracer("econstats/internal/router")

// Router is the master query router. It is safe for concurrent use.
type Router struct {
	registry       *registry.Registry
	llm            *llmrouter.Router
	fallback       *llmrouter.Classifier
	cache          *cache.Cache[models.RoutingResult]
	enrichers      []enrich.Enricher
	fuzzyThreshold float64
	logger         *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLLM sets the primary model router.
func WithLLM(r *llmrouter.Router) Option {
	return func(rt *Router) {
		rt.llm = r
	}
}

// WithFallback sets the secondary classifier used when the primary model
// is down.
func WithFallback(c *llmrouter.Classifier) Option {
	return func(rt *Router) {
		rt.fallback = c
	}
}

// WithCache replaces the routing cache.
func WithCache(c *cache.Cache[models.RoutingResult]) Option {
	return func(rt *Router) {
		rt.cache = c
	}
}

// WithEnrichers sets the special-topic enrichers.
func WithEnrichers(e ...enrich.Enricher) Option {
	return func(rt *Router) {
		rt.enrichers = e
	}
}

// WithFuzzyThreshold sets the similarity threshold of the fuzzy stage.
func WithFuzzyThreshold(t float64) Option {
	return func(rt *Router) {
		if t > 0 && t <= 1 {
			rt.fuzzyThreshold = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Router) {
		rt.logger = logger
	}
}

// NewRoutingCache creates the default routing cache.
func NewRoutingCache() *cache.Cache[models.RoutingResult] {
	return cache.New[models.RoutingResult](DefaultCacheTTL, DefaultCacheEntries, cache.WithName("routing"))
}

// New creates a router over reg. Without WithLLM and WithFallback only the
// deterministic stages run.
func New(reg *registry.Registry, opts ...Option) *Router {
	r := &Router{
		registry:       reg,
		fuzzyThreshold: registry.DefaultFuzzyThreshold,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewRoutingCache()
	}
	return r
}

// Cache returns the routing cache.
func (r *Router) Cache() *cache.Cache[models.RoutingResult] {
	return r.cache
}

// Route resolves query. It never fails: exhausting every stage yields an
// empty result tagged RouteNone.
func (r *Router) Route(ctx context.Context, query string) models.RoutingResult {
	return r.RouteWithHistory(ctx, query, nil)
}

// RouteWithHistory resolves query with recent conversation turns as model
// context. Queries with history bypass the routing cache.
func (r *Router) RouteWithHistory(ctx context.Context, query string, history []llmrouter.Turn) models.RoutingResult {
	ctx, span := tracer.Start(ctx, "router.route")
	defer span.End()

	key := registry.Normalize(query)
	cacheable := key != "" && len(history) == 0

	res, ok := r.resolve(ctx, span, query, key, cacheable, history)
	if !ok {
		res = models.RoutingResult{RouteType: models.RouteNone, Explanation: NoMatchExplanation}
		r.logger.Info("No route for query", "query", query)
	} else if res.RouteType != models.RouteCached {
		r.validate(query, &res)
		enrich.Run(ctx, query, &res, r.logger, r.enrichers...)
		if cacheable {
			r.cache.Set(key, res.Clone())
		}
	}

	metrics.RecordRoute(string(res.RouteType))
	span.SetAttributes(
		attribute.String("route.type", string(res.RouteType)),
		attribute.String("route.plan_key", res.PlanKey),
		attribute.Int("route.series", len(res.Series)),
	)
	r.logger.Debug("Routed query",
		"query", query,
		"route_type", res.RouteType,
		"plan_key", res.PlanKey,
		"series", res.Series,
	)
	return res
}

// resolve runs the stages in order and stops at the first that yields series.
func (r *Router) resolve(ctx context.Context, span trace.Span, query, key string, cacheable bool, history []llmrouter.Turn) (models.RoutingResult, bool) {
	stage := func(name string) {
		span.AddEvent("stage", trace.WithAttributes(attribute.String("stage", name)))
	}

	if cacheable {
		stage("cache")
		if cached, ok := r.cache.Get(key); ok && !cached.Empty() {
			res := cached.Clone()
			res.RouteType = models.RouteCached
			return res, true
		}
	}

	stage("exact")
	if planKey, plan, ok := r.registry.GetPlan(query); ok {
		return models.FromPlan(planKey, plan, models.RouteExact), true
	}

	stage("llm")
	decision, outcome := r.llm.Decide(ctx, query, history)
	if decision != nil {
		if res, ok := r.fromDecision(query, decision); ok {
			return res, true
		}
	}

	stage("fuzzy")
	if planKey, plan, ok := r.registry.FuzzyMatch(query, r.fuzzyThreshold); ok {
		return models.FromPlan(planKey, plan, models.RouteFuzzy), true
	}

	if outcome.Down() && r.fallback.Available() {
		stage("fallback")
		if cls, ok := r.fallback.Classify(ctx, query); ok {
			if planKey, plan, ok := r.registry.GetPlan(cls.Topic); ok {
				res := models.FromPlan(planKey, plan, models.RouteFallback)
				applyYoY(&res, cls.ShowYoY)
				return res, true
			}
		}
	}

	stage("none")
	return models.RoutingResult{}, false
}

// fromDecision turns a model decision into a result. A plan key missing from
// the registry gets one fuzzy attempt on the key itself. Custom series are
// used only when no plan resolved, after id sanitizing.
func (r *Router) fromDecision(query string, d *llmrouter.Decision) (models.RoutingResult, bool) {
	var res models.RoutingResult
	found := false

	if d.PlanKey != "" {
		if planKey, plan, ok := r.lookupPlanKey(d.PlanKey); ok {
			res = models.FromPlan(planKey, plan, models.RouteLLM)
			found = true
		} else {
			r.logger.Warn("LLM chose unknown plan", "query", query, "plan_key", d.PlanKey)
		}
	}

	if found && d.SecondaryPlanKey != "" {
		if planKey, plan, ok := r.lookupPlanKey(d.SecondaryPlanKey); ok && planKey != res.PlanKey {
			res.Series = appendUnique(res.Series, plan.Series...)
			res.IsComparison = true
			res.ChartGroups = nil
		}
	}

	if !found && len(d.CustomSeries) > 0 {
		ids := validation.SanitizeSeriesIDs(d.CustomSeries)
		if len(ids) > 0 {
			res = models.RoutingResult{Series: ids, RouteType: models.RouteLLM}
			found = true
		}
	}
	if !found {
		return models.RoutingResult{}, false
	}

	applyYoY(&res, d.ShowYoY)
	res.IsComparison = res.IsComparison || d.IsComparison
	if res.Explanation == "" {
		res.Explanation = d.Explanation
	}
	if d.NeedsFedSEP {
		res.Flags = append(res.Flags, models.EnrichFedGuidance)
	}
	if d.NeedsRecessionScorecard {
		res.Flags = append(res.Flags, models.EnrichRecessionScore)
	}
	if d.NeedsCAPE {
		res.Flags = append(res.Flags, models.EnrichEquityValuation)
	}
	if d.IsMarketQuery {
		res.Flags = append(res.Flags, models.EnrichMarketQuery)
	}
	return res, true
}

func (r *Router) lookupPlanKey(key string) (string, *models.QueryPlan, bool) {
	if planKey, plan, ok := r.registry.GetPlan(key); ok {
		return planKey, plan, true
	}
	planKey, plan, ok := r.registry.FuzzyMatch(key, r.fuzzyThreshold)
	if ok {
		r.logger.Debug("Resolved LLM plan key by fuzzy match", "plan_key", key, "matched", planKey)
	}
	return planKey, plan, ok
}

func applyYoY(res *models.RoutingResult, override *bool) {
	if override == nil {
		return
	}
	v := *override
	res.ShowYoY = v
	res.YoYOverride = &v
}

func appendUnique(ids []string, more ...string) []string {
	seen := make(map[string]bool, len(ids)+len(more))
	for _, id := range ids {
		seen[id] = true
	}
	for _, id := range more {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
