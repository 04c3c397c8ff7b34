package llmrouter

import (
	"fmt"
	"strings"

	"econstats/internal/plancatalog"
)

// MaxHistoryTurns caps how much conversation is sent with a query.
const MaxHistoryTurns = 4

// Turn is one earlier exchange in the conversation.
type Turn struct {
	Query  string `json:"query"`
	Answer string `json:"answer,omitempty"`
}

const systemPrompt = `You are the query router for an economics data dashboard. Given a user query, select the best pre-built data plan from the catalog.

## INSTRUCTIONS

1. Pick the PLAN KEY that best answers the user's question.
   - Plan keys are the exact strings listed in the catalog (e.g., "job market", "inflation", "black unemployment").
   - Match semantics, not just keywords. "How are jobs doing?" -> "job market". "What's happening with prices?" -> "inflation".
   - For state queries, construct the key as "{state name} {topic}" (e.g., "california economy", "texas unemployment").

2. For COMPARISON queries ("vs", "compared to", "relative to"):
   - Look for a comparison plan first (e.g., "cpi vs pce").
   - If no comparison plan exists, return the second plan key in "secondary_plan_key" and set is_comparison.

3. If NO plan matches, set plan_key to null and return 1-4 FRED series IDs in custom_series.
   Common FRED series: UNRATE, PAYEMS, CPIAUCSL, CPILFESL, FEDFUNDS, DGS10, GDPC1, HOUST, MORTGAGE30US, SP500, ICSA, JTSJOL, T10Y2Y, SAHMREALTIME, PCEPILFE
   Prefer a catalog plan over custom series whenever one is close.

4. Set special flags when applicable:
   - needs_fed_sep: query asks about Fed projections, dot plot, rate path, FOMC
   - needs_recession_scorecard: query asks about recession risk/probability/indicators
   - needs_cape: query asks about market valuation, P/E ratio, bubble, overvalued
   - is_market_query: query asks about stock market, commodities, gold, VIX

5. show_yoy: leave null unless the user explicitly asks for "year over year", "annual change" or "percent change" (true) or explicitly asks for levels (false).

## RESPONSE FORMAT (JSON only, no markdown fences)

{
  "plan_key": "the best matching plan key" or null,
  "secondary_plan_key": null or "second plan key for comparisons",
  "custom_series": null or ["SERIES1", "SERIES2"],
  "show_yoy": null,
  "is_comparison": false,
  "needs_fed_sep": false,
  "needs_recession_scorecard": false,
  "needs_cape": false,
  "is_market_query": false,
  "explanation": "one sentence why this plan matches"
}`

// buildPrompt renders the user turn: catalog, topic hint, recent history
// and the query itself.
func buildPrompt(query, catalogText string, history []Turn) string {
	var sb strings.Builder

	sb.WriteString("## PLAN CATALOG\n")
	sb.WriteString(catalogText)
	sb.WriteString("\n")

	if hint := plancatalog.PreFilter(query); len(hint) > 0 {
		names := make([]string, len(hint))
		for i, b := range hint {
			names[i] = string(b)
		}
		fmt.Fprintf(&sb, "\nLikely sections: %s (a hint only; any plan may be chosen)\n", strings.Join(names, ", "))
	}

	if len(history) > MaxHistoryTurns {
		history = history[len(history)-MaxHistoryTurns:]
	}
	if len(history) > 0 {
		sb.WriteString("\n## RECENT CONVERSATION (context only)\n")
		for _, t := range history {
			fmt.Fprintf(&sb, "- User: %s\n", oneLine(t.Query, 200))
			if t.Answer != "" {
				fmt.Fprintf(&sb, "  Shown: %s\n", oneLine(t.Answer, 200))
			}
		}
	}

	fmt.Fprintf(&sb, "\nUSER QUERY: %q\n", query)
	return sb.String()
}

// oneLine collapses whitespace and cuts s to maxLen runes.
func oneLine(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxLen {
		s = string(r[:maxLen]) + "..."
	}
	return s
}
