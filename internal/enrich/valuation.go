package enrich

import (
	"context"
	"fmt"
	"math"

	"econstats/internal/models"
)

var valuationPatterns = []string{
	"cape", "cape ratio", "shiller pe", "shiller p/e", "stock valuation", "stock valuations",
	"market valuation", "are stocks overvalued", "stock bubble", "market bubble",
}

// CAPEBenchmarks are historical reference readings.
var CAPEBenchmarks = map[string]float64{
	"long_term_average": 17.0,
	"median":            16.0,
	"dot_com_peak":      44.2,
	"2008_crisis_low":   13.3,
	"1929_peak":         32.6,
}

// capeDeciles approximates the historical distribution (1881 onward) for
// readings configured without a percentile.
var capeDeciles = []struct {
	value      float64
	percentile float64
}{
	{7.0, 2}, {9.5, 10}, {10.8, 15}, {12.0, 20}, {13.6, 30}, {15.0, 40},
	{16.0, 50}, {17.6, 60}, {20.0, 70}, {22.6, 80}, {24.8, 85}, {26.5, 90},
	{30.0, 95}, {38.0, 99},
}

// Reading is a configured CAPE observation.
type Reading struct {
	Value      float64 `json:"value" yaml:"value"`
	AsOf       string  `json:"as_of" yaml:"as_of"`
	Percentile float64 `json:"percentile,omitempty" yaml:"percentile"`
}

// ValuationPayload is the equity_valuation enrichment.
type ValuationPayload struct {
	CurrentValue   float64            `json:"current_value"`
	AsOf           string             `json:"as_of"`
	Percentile     float64            `json:"percentile"`
	PremiumPct     float64            `json:"premium_to_average_pct"`
	VsDotComPct    float64            `json:"vs_dot_com_peak_pct"`
	Benchmarks     map[string]float64 `json:"benchmarks"`
	Interpretation string             `json:"interpretation"`
}

// EquityValuation puts a configured CAPE reading in historical context.
type EquityValuation struct {
	reading Reading
}

// NewEquityValuation creates the enricher.
func NewEquityValuation(reading Reading) *EquityValuation {
	return &EquityValuation{reading: reading}
}

// Name implements Enricher.
func (e *EquityValuation) Name() string { return models.EnrichEquityValuation }

// Triggered implements Enricher.
func (e *EquityValuation) Triggered(query string, res *models.RoutingResult) bool {
	return triggeredBy(query, res, models.EnrichEquityValuation, valuationPatterns)
}

// Build implements Enricher.
func (e *EquityValuation) Build(context.Context, string) (any, error) {
	cape := e.reading.Value
	if cape <= 0 {
		return nil, fmt.Errorf("no CAPE reading configured")
	}
	pct := e.reading.Percentile
	if pct <= 0 {
		pct = estimatePercentile(cape)
	}
	avg := CAPEBenchmarks["long_term_average"]
	peak := CAPEBenchmarks["dot_com_peak"]

	benchmarks := make(map[string]float64, len(CAPEBenchmarks))
	for k, v := range CAPEBenchmarks {
		benchmarks[k] = v
	}
	return ValuationPayload{
		CurrentValue:   round1(cape),
		AsOf:           e.reading.AsOf,
		Percentile:     round1(pct),
		PremiumPct:     round1((cape/avg - 1) * 100),
		VsDotComPct:    round1((cape/peak - 1) * 100),
		Benchmarks:     benchmarks,
		Interpretation: interpretCAPE(pct),
	}, nil
}

// estimatePercentile interpolates linearly between known deciles.
func estimatePercentile(cape float64) float64 {
	first, last := capeDeciles[0], capeDeciles[len(capeDeciles)-1]
	if cape <= first.value {
		return first.percentile
	}
	if cape >= last.value {
		return last.percentile
	}
	for i := 1; i < len(capeDeciles); i++ {
		lo, hi := capeDeciles[i-1], capeDeciles[i]
		if cape <= hi.value {
			frac := (cape - lo.value) / (hi.value - lo.value)
			return lo.percentile + frac*(hi.percentile-lo.percentile)
		}
	}
	return last.percentile
}

func interpretCAPE(pct float64) string {
	switch {
	case pct >= 95:
		return fmt.Sprintf("In the top 5%% of historical readings (%.0fth percentile). At similar levels, subsequent 10-year returns have averaged 3-4%% annually vs the historical 7%%. High CAPE doesn't predict timing of corrections, but does indicate elevated valuations by historical standards.", pct)
	case pct >= 85:
		return fmt.Sprintf("Above most historical readings (%.0fth percentile). Historically, this level has preceded below-average 10-year returns. Elevated, but below dot-com extremes.", pct)
	case pct >= 70:
		return fmt.Sprintf("Above the long-term average (%.0fth percentile). Typical of economic expansions. Historically associated with modest but positive forward returns.", pct)
	case pct >= 30:
		return "Near the long-term average of ~17. Historically typical valuation levels."
	case pct >= 15:
		return fmt.Sprintf("Below historical average (%.0fth percentile). Historically, below-average CAPE has preceded above-average returns over the following decade.", pct)
	default:
		return fmt.Sprintf("Well below historical average (%.0fth percentile). Rare reading; historically, buying at these levels has produced strong long-term returns, though short-term volatility can persist.", pct)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
