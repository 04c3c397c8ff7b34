package models

// RouteType records which routing stage produced a result.
type RouteType string

// Route type constants
const (
	RouteCached   RouteType = "cached"
	RouteExact    RouteType = "exact"
	RouteLLM      RouteType = "llm"
	RouteFuzzy    RouteType = "fuzzy_fallback"
	RouteFallback RouteType = "fallback"
	RouteNone     RouteType = "none"
)

// Enrichment names for the special topics.
const (
	EnrichFedGuidance     = "fed_guidance"
	EnrichRecessionScore  = "recession_scorecard"
	EnrichEquityValuation = "equity_valuation"
	EnrichMarketQuery     = "market_query"
)

// RoutingResult is the outcome of routing one query.
type RoutingResult struct {
	Series       []string         `json:"series"`
	ShowYoY      bool             `json:"show_yoy"`
	YoYOverride  *bool            `json:"yoy_override,omitempty"`
	CombineChart bool             `json:"combine_chart"`
	ChartGroups  []ChartGroupSpec `json:"chart_groups,omitempty"`
	IsComparison bool             `json:"is_comparison"`
	Explanation  string           `json:"explanation,omitempty"`
	RouteType    RouteType        `json:"route_type"`
	PlanKey      string           `json:"plan_key,omitempty"`
	Correction   string           `json:"correction,omitempty"`
	Enrichments  map[string]any   `json:"enrichments,omitempty"`
	Flags        []string         `json:"-"`
}

// Empty reports whether routing resolved no series.
func (r *RoutingResult) Empty() bool {
	return r == nil || len(r.Series) == 0
}

// HasFlag reports whether the producing stage raised a special-topic flag.
func (r *RoutingResult) HasFlag(name string) bool {
	for _, f := range r.Flags {
		if f == name {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or maps with r.
func (r RoutingResult) Clone() RoutingResult {
	out := r
	out.Series = append([]string(nil), r.Series...)
	out.Flags = append([]string(nil), r.Flags...)
	if r.ChartGroups != nil {
		out.ChartGroups = make([]ChartGroupSpec, len(r.ChartGroups))
		for i, g := range r.ChartGroups {
			g.Series = append([]string(nil), g.Series...)
			out.ChartGroups[i] = g
		}
	}
	if r.Enrichments != nil {
		out.Enrichments = make(map[string]any, len(r.Enrichments))
		for k, v := range r.Enrichments {
			out.Enrichments[k] = v
		}
	}
	return out
}

// FromPlan builds a routing result from a curated plan.
func FromPlan(key string, plan *QueryPlan, route RouteType) RoutingResult {
	res := RoutingResult{
		Series:       append([]string(nil), plan.Series...),
		ShowYoY:      plan.YoY(),
		CombineChart: plan.CombineChart,
		IsComparison: plan.IsComparison,
		Explanation:  plan.Explanation,
		RouteType:    route,
		PlanKey:      key,
	}
	if len(plan.ChartGroups) > 0 {
		res.ChartGroups = make([]ChartGroupSpec, len(plan.ChartGroups))
		for i, g := range plan.ChartGroups {
			g.Series = append([]string(nil), g.Series...)
			res.ChartGroups[i] = g
		}
	}
	return res
}
