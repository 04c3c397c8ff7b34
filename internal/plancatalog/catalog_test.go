package plancatalog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econstats/internal/registry"
)

type keyList []string

func (k keyList) AllPlanKeys() []string { return k }

func TestClassify(t *testing.T) {
	tests := []struct {
		key  string
		want Bucket
	}{
		{"black unemployment", EmploymentDemographics},
		{"hispanic workers", EmploymentDemographics},
		{"unemployment", Employment},
		{"nonfarm payrolls", Employment},
		{"manufacturing jobs", EmploymentSectors},
		{"construction", EmploymentSectors},
		{"construction jobs", EmploymentSectors},
		{"home prices", Housing},
		{"house prices", Housing},
		{"housing prices", Housing},
		{"new construction", Housing},
		{"housing starts", Housing},
		{"california economy", States},
		{"texas unemployment", States},
		{"wages vs inflation", WagesIncome},
		{"mortgage rates", Housing},
		{"fed funds rate", FedRates},
		{"recession risk", Recession},
		{"cpi", Inflation},
		{"gas prices", Inflation},
		{"gdp", GDP},
		{"stocks", TradeMarkets},
		{"is the economy ok", EconomyOverview},
		{"something unrelated", EconomyOverview},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.key))
		})
	}
}

func TestClassifyWholeWords(t *testing.T) {
	// "pay" must not fire inside "payrolls", nor "rent" inside "current"
	assert.Equal(t, Employment, Classify("payrolls"))
	assert.Equal(t, EconomyOverview, Classify("current conditions"))
}

func TestPreFilter(t *testing.T) {
	tests := []struct {
		query string
		want  []Bucket
	}{
		{"black unemployment in texas", []Bucket{EmploymentDemographics, States, Employment}},
		{"what is inflation", []Bucket{Inflation}},
		{"are we headed for a recession", []Bucket{Recession}},
		{"hello there", nil},
		{"home prices and housing starts", []Bucket{Housing, Inflation}},
		{"construction jobs", []Bucket{EmploymentSectors, Employment}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, PreFilter(tt.query))
		})
	}
}

func TestPreFilterCapsAtThree(t *testing.T) {
	got := PreFilter("black unemployment and manufacturing jobs in ohio during the recession with wage growth")
	assert.Len(t, got, 3)
	assert.Equal(t, EmploymentDemographics, got[0])
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{
		"how is the economy doing",
		"how is the economy",
		"inflation today",
		"inflation",
		"jobs",
	})
	assert.Equal(t, []string{"jobs", "inflation", "how is the economy"}, got)
}

func TestBuild(t *testing.T) {
	c := Build(keyList{
		"black unemployment",
		"california economy",
		"california unemployment",
		"inflation",
		"inflation today",
		"unemployment",
	})

	assert.Equal(t, 6, c.Len())
	assert.Equal(t, []string{"black unemployment"}, c.Keys(EmploymentDemographics))
	assert.Equal(t, []Bucket{Employment, EmploymentDemographics, Inflation, States}, c.Buckets())

	text := c.Text()
	assert.Contains(t, text, "EMPLOYMENT (1 plans):\n  unemployment\n")
	assert.Contains(t, text, "INFLATION (2 plans):\n  inflation\n")
	assert.Contains(t, text, "STATES (2 plans):")
	assert.Contains(t, text, "All 50 states + DC covered.")
	assert.NotContains(t, text, "california unemployment")
	assert.Less(t, strings.Index(text, "EMPLOYMENT ("), strings.Index(text, "EMPLOYMENT_DEMOGRAPHICS ("))
}

func TestBuildTrimsToBudget(t *testing.T) {
	keys := make(keyList, 0, 300)
	for i := range 300 {
		keys = append(keys, fmt.Sprintf("jobs metric %03d", i))
	}

	c := Build(keys, WithTokenBudget(100))

	assert.Contains(t, c.Text(), "EMPLOYMENT (300 plans):")
	assert.Contains(t, c.Text(), "(+280 more)")
	assert.LessOrEqual(t, EstimateTokens(c.Text()), 100)
	assert.Len(t, c.Keys(Employment), 300)
}

func TestBuildDefaultRegistryFitsBudget(t *testing.T) {
	reg, err := registry.NewDefault()
	require.NoError(t, err)

	c := Build(reg)

	assert.Equal(t, reg.Len(), c.Len())
	assert.LessOrEqual(t, EstimateTokens(c.Text()), DefaultTokenBudget)
	assert.Contains(t, c.Keys(EmploymentDemographics), "black unemployment")
	assert.Contains(t, c.Keys(FedRates), "fed funds rate")
	assert.Contains(t, c.Keys(States), "texas economy")
	assert.Contains(t, c.Keys(Housing), "home prices")
	assert.Contains(t, c.Keys(EmploymentSectors), "construction")
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	assert.Equal(t, "", c.Text())
	assert.Zero(t, c.Len())
	assert.Nil(t, c.Buckets())
}
