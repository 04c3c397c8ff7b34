package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econstats/internal/catalog"
	"econstats/internal/enrich"
	"econstats/internal/llmrouter"
	"econstats/internal/models"
	"econstats/internal/plancatalog"
	"econstats/internal/registry"
	"econstats/internal/testutil"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.NewDefault()
	require.NoError(t, err)
	return reg
}

// newRouter wires a router whose primary model answers with replies.
func newRouter(t *testing.T, fake *testutil.FakeCompleter, opts ...Option) *Router {
	t.Helper()
	reg := testRegistry(t)
	if fake != nil {
		opts = append([]Option{WithLLM(llmrouter.New(fake, plancatalog.Build(reg)))}, opts...)
	}
	return New(reg, opts...)
}

func TestExactMatchSkipsModel(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "inflation"}`)
	r := newRouter(t, fake)

	res := r.Route(context.Background(), "Fed funds rate")

	assert.Equal(t, models.RouteExact, res.RouteType)
	assert.Equal(t, "fed funds rate", res.PlanKey)
	assert.Equal(t, []string{"FEDFUNDS"}, res.Series)
	assert.Equal(t, 0, fake.Calls())
}

func TestDemographicOverride(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "unemployment"}`)
	r := newRouter(t, fake)

	res := r.Route(context.Background(), "How are Black Americans faring in the labor market right now")

	assert.Equal(t, models.RouteLLM, res.RouteType)
	assert.Equal(t, []string{"LNS14000006", "LNS11300006", "LNS12300006"}, res.Series)
	assert.Contains(t, res.Correction, "demographic")
}

func TestStateOverrideAppendsNational(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "job market"}`)
	r := newRouter(t, fake)

	res := r.Route(context.Background(), "are jobs holding up in california")

	assert.Equal(t, models.RouteLLM, res.RouteType)
	assert.Equal(t, []string{"CAUR", "CANA", "UNRATE", "PAYEMS"}, res.Series)
	assert.Contains(t, res.Correction, "California")
}

func TestStateJobsPlan(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key":"texas jobs"}`)
	r := newRouter(t, fake)

	res := r.Route(context.Background(), "are employers in texas still hiring")

	assert.Equal(t, models.RouteLLM, res.RouteType)
	assert.Equal(t, "texas economy", res.PlanKey)
	assert.Equal(t, []string{"TXUR", "TXNA", "UNRATE", "PAYEMS"}, res.Series)
	assert.Empty(t, res.Correction)
	assert.Equal(t, 1, fake.Calls())
}

func TestStateQueriesWithoutModel(t *testing.T) {
	tests := []struct {
		query   string
		planKey string
		series  []string
	}{
		{"texas jobs", "texas economy", []string{"TXUR", "TXNA", "UNRATE", "PAYEMS"}},
		{"Ohio jobs", "ohio economy", []string{"OHUR", "OHNA", "UNRATE", "PAYEMS"}},
		{"jobs in ohio", "ohio economy", []string{"OHUR", "OHNA", "UNRATE", "PAYEMS"}},
		{"unemployment in michigan", "michigan unemployment", []string{"MIUR", "UNRATE"}},
	}

	r := newRouter(t, nil)
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res := r.Route(context.Background(), tt.query)

			assert.Equal(t, models.RouteExact, res.RouteType)
			assert.Equal(t, tt.planKey, res.PlanKey)
			assert.Equal(t, tt.series, res.Series)
			assert.NotContains(t, res.Series, "LNS14000006")
		})
	}
}

func TestStateOverridesPlanForOtherTopic(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "unemployment by race"}`)
	r := newRouter(t, fake)

	res := r.Route(context.Background(), "is unemployment rising across michigan")

	assert.Equal(t, models.RouteLLM, res.RouteType)
	assert.Equal(t, []string{"MIUR", "MINA", "UNRATE", "PAYEMS"}, res.Series)
	assert.NotContains(t, res.Series, "LNS14000006")
	assert.Contains(t, res.Correction, "Michigan")
	assert.False(t, res.CombineChart)
}

func TestStateOverrideNeedsLaborTopic(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "fed funds rate"}`)
	r := newRouter(t, fake)

	res := r.Route(context.Background(), "what is the new york fed doing")

	assert.Equal(t, []string{"FEDFUNDS"}, res.Series)
	assert.Empty(t, res.Correction)
}

func TestOverridePrecedence(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "unemployment"}`)
	r := newRouter(t, fake)

	res := r.Route(context.Background(), "black unemployment in texas")

	assert.Equal(t, []string{"LNS14000006", "LNS11300006", "LNS12300006"}, res.Series)
	assert.Contains(t, res.Correction, "demographic")
}

func TestSectorOverride(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "jobs"}`)
	r := newRouter(t, fake)

	res := r.Route(context.Background(), "are factories still hiring")

	assert.Equal(t, []string{"MANEMP", "IPMAN"}, res.Series)
	assert.Contains(t, res.Correction, "sector")
}

func TestCuratedPlanNotOverridden(t *testing.T) {
	r := newRouter(t, nil)

	res := r.Route(context.Background(), "texas economy")

	assert.Equal(t, models.RouteExact, res.RouteType)
	assert.Equal(t, []string{"TXUR", "TXNA", "UNRATE", "PAYEMS"}, res.Series)
	assert.Empty(t, res.Correction)
}

func TestWordBoundaries(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "unemployment"}`)
	r := newRouter(t, fake)

	res := r.Route(context.Background(), "unemployment after the blackout")

	assert.Equal(t, []string{"UNRATE"}, res.Series)
	assert.Empty(t, res.Correction)
}

func TestNoMatch(t *testing.T) {
	r := newRouter(t, nil)

	res := r.Route(context.Background(), "zzqx flibber")

	assert.Equal(t, models.RouteNone, res.RouteType)
	assert.Empty(t, res.Series)
	assert.Equal(t, NoMatchExplanation, res.Explanation)
}

func TestCacheHit(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "job market"}`)
	r := newRouter(t, fake)

	first := r.Route(context.Background(), "california jobs")
	second := r.Route(context.Background(), "California jobs?")

	assert.Equal(t, models.RouteLLM, first.RouteType)
	assert.Equal(t, models.RouteCached, second.RouteType)
	assert.Equal(t, first.Series, second.Series)
	assert.Equal(t, 1, fake.Calls())

	// Cached copies are independent of what callers do with results.
	second.Series[0] = "MUTATED"
	third := r.Route(context.Background(), "california jobs")
	assert.Equal(t, "CAUR", third.Series[0])
}

func TestHistoryBypassesCache(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "job market"}`)
	r := newRouter(t, fake)
	history := []llmrouter.Turn{{Query: "how is the economy", Answer: "Growing."}}

	r.RouteWithHistory(context.Background(), "california jobs", history)
	res := r.RouteWithHistory(context.Background(), "california jobs", history)

	assert.Equal(t, models.RouteLLM, res.RouteType)
	assert.Equal(t, 2, fake.Calls())
	assert.Equal(t, 0, r.Cache().Len())
}

func TestFallbackOnlyWhenPrimaryDown(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name         string
		primary      *testutil.FakeCompleter
		wantRoute    models.RouteType
		wantFallback int
	}{
		{
			name:         "primary failed",
			primary:      &testutil.FakeCompleter{Err: errors.New("upstream 503")},
			wantRoute:    models.RouteFallback,
			wantFallback: 1,
		},
		{
			name:         "primary found nothing",
			primary:      testutil.NewFakeCompleter(`{"plan_key": null, "explanation": "not economic"}`),
			wantRoute:    models.RouteNone,
			wantFallback: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secondary := testutil.NewFakeCompleter("inflation|true")
			r := New(reg,
				WithLLM(llmrouter.New(tt.primary, plancatalog.Build(reg))),
				WithFallback(llmrouter.NewClassifier(secondary, reg.AllPlanKeys(), nil)),
			)

			res := r.Route(context.Background(), "zzqx flibber")

			assert.Equal(t, tt.wantRoute, res.RouteType)
			assert.Equal(t, tt.wantFallback, secondary.Calls())
			if tt.wantRoute == models.RouteFallback {
				assert.Equal(t, []string{"CPIAUCSL", "CPILFESL"}, res.Series)
				require.NotNil(t, res.YoYOverride)
				assert.True(t, *res.YoYOverride)
			}
		})
	}
}

func TestFallbackWithoutPrimary(t *testing.T) {
	reg := testRegistry(t)
	secondary := testutil.NewFakeCompleter("inflation|false")
	r := New(reg, WithFallback(llmrouter.NewClassifier(secondary, reg.AllPlanKeys(), nil)))

	res := r.Route(context.Background(), "zzqx flibber")

	assert.Equal(t, models.RouteFallback, res.RouteType)
	assert.False(t, res.ShowYoY)
}

func TestSecondaryPlanMerges(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "inflation", "secondary_plan_key": "unemployment", "is_comparison": true}`)
	r := newRouter(t, fake)

	res := r.Route(context.Background(), "prices against joblessness")

	assert.Equal(t, []string{"CPIAUCSL", "CPILFESL", "UNRATE"}, res.Series)
	assert.True(t, res.IsComparison)
	assert.Nil(t, res.ChartGroups)
}

func TestPlanKeyFuzzyRetry(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"plan_key": "job markets"}`)
	r := newRouter(t, fake)

	res := r.Route(context.Background(), "is hiring strong")

	assert.Equal(t, models.RouteLLM, res.RouteType)
	assert.Equal(t, "job market", res.PlanKey)
}

func TestCustomSeriesAndYoY(t *testing.T) {
	fake := testutil.NewFakeCompleter(`{"custom_series": ["dcoilwtico", "bad id!"], "show_yoy": true, "is_market_query": true}`)
	r := newRouter(t, fake, WithEnrichers(enrich.MarketQuery{}))

	res := r.Route(context.Background(), "what is crude doing")

	assert.Equal(t, models.RouteLLM, res.RouteType)
	assert.Equal(t, []string{"DCOILWTICO"}, res.Series)
	assert.True(t, res.ShowYoY)
	require.NotNil(t, res.YoYOverride)
	assert.Contains(t, res.Enrichments, models.EnrichMarketQuery)
}

func TestEnrichmentIsAdditive(t *testing.T) {
	table, err := enrich.DefaultProjections()
	require.NoError(t, err)
	fake := testutil.NewFakeCompleter(`{"plan_key": "fed funds rate", "needs_fed_sep": true}`)
	r := newRouter(t, fake, WithEnrichers(enrich.NewFedGuidance(table, nil, nil)))

	res := r.Route(context.Background(), "where is monetary policy heading")

	assert.Equal(t, []string{"FEDFUNDS"}, res.Series)
	require.Contains(t, res.Enrichments, models.EnrichFedGuidance)
	assert.True(t, res.HasFlag(models.EnrichFedGuidance))
}

func TestCoversState(t *testing.T) {
	tx := catalog.State{Name: "Texas", Code: "TX"}
	assert.True(t, coversState([]string{"TXUR", "UNRATE"}, tx))
	assert.True(t, coversState([]string{"TXNA"}, tx))
	assert.False(t, coversState([]string{"CAUR", "UNRATE"}, tx))
}

func TestAllGeneric(t *testing.T) {
	assert.True(t, allGeneric([]string{"UNRATE", "PAYEMS"}))
	assert.False(t, allGeneric([]string{"UNRATE", "CAUR"}))
	assert.False(t, allGeneric(nil))
}
