package registry

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econstats/internal/catalog"
	"econstats/internal/models"
)

func smallRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	for _, k := range []string{"housing starts", "home prices", "mortgage rates", "inflation", "unemployment", "consumer sentiment", "retail sales"} {
		require.True(t, r.Register(k, models.QueryPlan{Series: []string{"UNRATE"}}))
	}
	return r
}

func TestGetPlanExact(t *testing.T) {
	r, err := NewDefault(WithCatalog(catalog.Default()))
	require.NoError(t, err)

	key, plan, ok := r.GetPlan("What is the Fed Funds Rate?")
	require.True(t, ok)
	assert.Equal(t, "fed funds rate", key)
	assert.Equal(t, []string{"FEDFUNDS"}, plan.Series)

	_, _, ok = r.GetPlan("quantum chromodynamics")
	assert.False(t, ok)
}

func TestGetPlanNormalizedKey(t *testing.T) {
	r := New()
	// the normalized form of this key differs from the key itself
	r.Register("the economy", models.QueryPlan{Series: []string{"UNRATE"}})

	key, _, ok := r.GetPlan("The Economy")
	require.True(t, ok)
	assert.Equal(t, "the economy", key)

	key, _, ok = r.GetPlan("economy")
	require.True(t, ok)
	assert.Equal(t, "the economy", key)
}

func TestSynonymsShareThePlan(t *testing.T) {
	r, err := NewDefault(WithCatalog(catalog.Default()))
	require.NoError(t, err)

	_, canonical, ok := r.GetPlan("inflation")
	require.True(t, ok)
	_, viaSynonym, ok := r.GetPlan("cost of living")
	require.True(t, ok)
	assert.Same(t, canonical, viaSynonym)
	assert.NotContains(t, r.AllPlanKeys(), "cost of living")
}

func TestSynonymDoesNotShadowPlanKey(t *testing.T) {
	r := New()
	r.Register("jobs", models.QueryPlan{Series: []string{"PAYEMS"}})
	r.Register("employment", models.QueryPlan{Series: []string{"UNRATE"}, Synonyms: []string{"jobs"}})

	_, plan, ok := r.GetPlan("jobs")
	require.True(t, ok)
	assert.Equal(t, []string{"PAYEMS"}, plan.Series)
}

func TestRegisterDropsUnknownSeries(t *testing.T) {
	r := New(WithCatalog(catalog.Default()))

	ok := r.Register("mixed", models.QueryPlan{
		Series:      []string{"unrate", "NOPE123", "PAYEMS"},
		ChartGroups: []models.ChartGroupSpec{{Series: []string{"NOPE123"}}, {Series: []string{"UNRATE", "PAYEMS"}}},
	})
	require.True(t, ok)
	_, plan, _ := r.GetPlan("mixed")
	assert.Equal(t, []string{"UNRATE", "PAYEMS"}, plan.Series)
	require.Len(t, plan.ChartGroups, 1)
	assert.Equal(t, []string{"UNRATE", "PAYEMS"}, plan.ChartGroups[0].Series)

	assert.False(t, r.Register("empty", models.QueryPlan{Series: []string{"NOPE123"}}))
	assert.Equal(t, 1, r.Len())
}

func TestFuzzyMatch(t *testing.T) {
	r := smallRegistry(t)

	tests := []struct {
		name  string
		query string
		want  string
		found bool
	}{
		{"typo", "inflaton", "inflation", true},
		{"typo with filler", "what is unemploymnt?", "unemployment", true},
		{"keyword retry", "latest housing starts report", "housing starts", true},
		{"keyword retry on shared word", "mortgage rate trends lately", "mortgage rates", true},
		{"no match", "quantum physics", "", false},
		{"empty", "?", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, plan, ok := r.FuzzyMatch(tt.query, DefaultFuzzyThreshold)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, key)
			if tt.found {
				assert.NotNil(t, plan)
			}
		})
	}
}

func TestFuzzyMatchRespectsThreshold(t *testing.T) {
	r := smallRegistry(t)
	_, _, ok := r.FuzzyMatch("latest housing starts report", 0.5)
	assert.True(t, ok)
	_, _, ok = r.FuzzyMatch("inflaton", 0.99)
	assert.False(t, ok)
}

func TestFuzzyMatchDeterministic(t *testing.T) {
	r := New()
	r.Register("abcd", models.QueryPlan{Series: []string{"UNRATE"}})
	r.Register("abce", models.QueryPlan{Series: []string{"PAYEMS"}})

	for i := 0; i < 20; i++ {
		key, _, ok := r.FuzzyMatch("abc", 0.7)
		require.True(t, ok)
		assert.Equal(t, "abcd", key)
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"plans/a.yaml": {Data: []byte(`
plans:
  jobs:
    series: [PAYEMS, UNRATE]
    explanation: first
  cpi:
    series: [CPIAUCSL]
    show_yoy: true
`)},
		"plans/b.json": {Data: []byte(`{"jobs": {"series": ["PAYEMS"], "explanation": "second"}}`)},
		"plans/notes.txt": {Data: []byte("ignored")},
	}

	r := New()
	n, err := r.LoadFS(fsys, "plans")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"cpi", "jobs"}, r.AllPlanKeys())

	_, plan, _ := r.GetPlan("jobs")
	assert.Equal(t, "second", plan.Explanation)
	_, plan, _ = r.GetPlan("cpi")
	assert.True(t, plan.YoY())
}

func TestLoadFSInvalid(t *testing.T) {
	fsys := fstest.MapFS{"plans/bad.yaml": {Data: []byte("plans: [unterminated")}}
	_, err := New().LoadFS(fsys, "plans")
	assert.Error(t, err)
}

func TestMustGetPlan(t *testing.T) {
	_, _, err := smallRegistry(t).MustGetPlan("nothing here")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestDefaultRegistry(t *testing.T) {
	r, err := NewDefault(WithCatalog(catalog.Default()))
	require.NoError(t, err)

	assert.Greater(t, r.Len(), 150)
	_, plan, ok := r.GetPlan("california economy")
	require.True(t, ok)
	assert.Equal(t, []string{"CAUR", "CANA", "UNRATE", "PAYEMS"}, plan.Series)

	_, plan, ok = r.GetPlan("How is the Texas unemployment rate?")
	require.True(t, ok)
	assert.Equal(t, []string{"TXUR", "UNRATE"}, plan.Series)

	for _, q := range []string{"texas jobs", "Texas payrolls", "jobs in texas"} {
		key, _, ok := r.GetPlan(q)
		require.True(t, ok, q)
		assert.Equal(t, "texas economy", key, q)
	}
	key, _, ok := r.GetPlan("unemployment in michigan")
	require.True(t, ok)
	assert.Equal(t, "michigan unemployment", key)
}
