package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"question filler", "What is the Fed Funds Rate?", "fed funds rate"},
		{"state verb", "how is the economy doing?", "economy"},
		{"changed", "how has inflation changed", "inflation"},
		{"abbreviated versus", "CPI v. PCE", "cpi vs pce"},
		{"versus", "cpi versus pce", "cpi vs pce"},
		{"possessive", "Show me America's GDP", "america gdp"},
		{"plural possessive", "workers' wages", "workers wages"},
		{"curly apostrophe", "what’s inflation", "inflation"},
		{"whitespace", "  Tell me about   housing starts. ", "housing starts"},
		{"leading article", "the yield curve", "yield curve"},
		{"stacked fillers", "show me what is the unemployment rate", "unemployment rate"},
		{"already normalized", "fed funds rate", "fed funds rate"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.query))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	queries := []string{
		"What is the Fed Funds Rate?",
		"How's the economy doing?",
		"show me what's the CPI v. PCE trending",
		"Tell me about the the housing market...",
		"give me black unemployment in texas",
		"What are workers' wages looking",
		"s&p 500 vs 10-year treasury",
		"ＣＰＩ inflation",
		"how have home prices changed since 2020?",
		"v. v. v.",
	}

	for _, q := range queries {
		once := Normalize(q)
		assert.Equal(t, once, Normalize(once), "query %q", q)
	}
}

func TestNormalizeEquivalentForms(t *testing.T) {
	assert.Equal(t, Normalize("fed funds rate"), Normalize("What is the Fed Funds Rate?"))
	assert.Equal(t, Normalize("cpi vs pce"), Normalize("CPI versus PCE"))
}
