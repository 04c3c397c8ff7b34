package narrative

import "econstats/internal/validation"

var suggestionRules = []struct {
	keywords    []string
	suggestions []string
}{
	{
		keywords:    []string{"inflation", "cpi", "pce", "prices", "price"},
		suggestions: []string{"Core inflation trend", "Fed's inflation target", "Rent inflation"},
	},
	{
		keywords:    []string{"job", "jobs", "employment", "unemployment", "labor"},
		suggestions: []string{"Job openings vs hires", "Wage growth", "Part-time employment"},
	},
	{
		keywords:    []string{"gdp", "growth", "economy"},
		suggestions: []string{"Consumer spending", "Business investment", "GDP components"},
	},
	{
		keywords:    []string{"rate", "rates", "fed", "treasury", "yield", "yields"},
		suggestions: []string{"Yield curve", "Mortgage rates", "Fed projections"},
	},
	{
		keywords:    []string{"housing", "home", "homes", "mortgage", "mortgages"},
		suggestions: []string{"Home price trends", "Housing affordability", "New home sales"},
	},
}

var defaultSuggestions = []string{"How is inflation?", "Job market health", "GDP growth"}

// Suggestions returns follow-up questions for the topic of query.
func Suggestions(query string) []string {
	for _, rule := range suggestionRules {
		if _, ok := validation.FirstPhrase(query, rule.keywords); ok {
			return append([]string(nil), rule.suggestions...)
		}
	}
	return append([]string(nil), defaultSuggestions...)
}
