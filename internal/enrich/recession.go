package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"econstats/internal/catalog"
	"econstats/internal/models"
	"econstats/internal/sources"
)

var recessionPatterns = []string{
	"recession risk", "recession indicator", "recession indicators", "recession scorecard",
	"recession probability", "are we in a recession", "recession warning",
}

// RecessionSeries are the indicators the scorecard reads.
var RecessionSeries = []string{"SAHMREALTIME", "T10Y2Y", "UNRATE", "ICSA"}

// Indicator signals
const (
	SignalClear   = "clear"
	SignalWatch   = "watch"
	SignalWarning = "warning"
)

// Indicator is one scorecard row.
type Indicator struct {
	SeriesID  string  `json:"series_id"`
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Date      string  `json:"date"`
	Threshold float64 `json:"threshold"`
	Signal    string  `json:"signal"`
	Detail    string  `json:"detail"`
}

// Scorecard is the recession_scorecard enrichment.
type Scorecard struct {
	Indicators []Indicator `json:"indicators"`
	Warnings   int         `json:"warnings"`
	Risk       string      `json:"risk"`
	Summary    string      `json:"summary"`
}

// RecessionScorecard reads the latest recession indicators and grades them.
type RecessionScorecard struct {
	fetcher sources.Fetcher
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewRecessionScorecard creates the enricher. It fails at build time when
// fetcher is nil.
func NewRecessionScorecard(fetcher sources.Fetcher, c *catalog.Catalog, logger *slog.Logger) *RecessionScorecard {
	if c == nil {
		c = catalog.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecessionScorecard{fetcher: fetcher, catalog: c, logger: logger}
}

// Name implements Enricher.
func (r *RecessionScorecard) Name() string { return models.EnrichRecessionScore }

// Triggered implements Enricher.
func (r *RecessionScorecard) Triggered(query string, res *models.RoutingResult) bool {
	return triggeredBy(query, res, models.EnrichRecessionScore, recessionPatterns)
}

// Build implements Enricher.
func (r *RecessionScorecard) Build(ctx context.Context, _ string) (any, error) {
	if r.fetcher == nil {
		return nil, ErrNoFetcher
	}

	data := sources.FetchAll(ctx, r.fetcher, RecessionSeries, 2, r.logger)
	card := Scorecard{}
	for _, s := range data {
		ind, ok := r.grade(s)
		if !ok {
			continue
		}
		card.Indicators = append(card.Indicators, ind)
		if ind.Signal == SignalWarning {
			card.Warnings++
		}
	}
	if len(card.Indicators) == 0 {
		return nil, fmt.Errorf("no recession indicators available")
	}

	switch {
	case card.Warnings >= 2:
		card.Risk = "elevated"
	case card.Warnings == 1:
		card.Risk = "moderate"
	default:
		card.Risk = "low"
	}
	card.Summary = fmt.Sprintf("%d of %d recession indicators flashing warning; overall risk %s.",
		card.Warnings, len(card.Indicators), card.Risk)
	return card, nil
}

func (r *RecessionScorecard) grade(s models.SeriesData) (Indicator, bool) {
	n := s.Len()
	if n == 0 {
		return Indicator{}, false
	}
	ind := Indicator{
		SeriesID: s.ID,
		Name:     s.Info.Name,
		Value:    s.Values[n-1],
		Date:     s.Dates[n-1].Format("2006-01-02"),
	}
	if desc, ok := r.catalog.Lookup(s.ID); ok {
		ind.Name = desc.Name
	}

	switch s.ID {
	case "SAHMREALTIME":
		ind.Threshold = r.benchmark(s.ID, 0.5)
		ind.Signal = graded(ind.Value, ind.Threshold, ind.Threshold*0.6)
		ind.Detail = fmt.Sprintf("Sahm rule reading %.2f vs %.2f trigger", ind.Value, ind.Threshold)
	case "T10Y2Y":
		ind.Threshold = r.benchmark(s.ID, 0)
		switch {
		case ind.Value < ind.Threshold:
			ind.Signal = SignalWarning
			ind.Detail = fmt.Sprintf("Yield curve inverted at %.2f pts", ind.Value)
		case ind.Value < ind.Threshold+0.25:
			ind.Signal = SignalWatch
			ind.Detail = fmt.Sprintf("Yield curve nearly flat at %.2f pts", ind.Value)
		default:
			ind.Signal = SignalClear
			ind.Detail = fmt.Sprintf("Yield curve positive at %.2f pts", ind.Value)
		}
	case "UNRATE":
		window := s.Values[max(0, n-12):]
		low := slices.Min(window)
		rise := ind.Value - low
		ind.Threshold = 0.5
		ind.Signal = graded(rise, 0.5, 0.3)
		ind.Detail = fmt.Sprintf("Unemployment %.1f%%, up %.1f pts from its 12-month low", ind.Value, rise)
	case "ICSA":
		ind.Threshold = 300000
		ind.Signal = graded(ind.Value, 300000, 250000)
		ind.Detail = fmt.Sprintf("Initial claims at %.0f", ind.Value)
	default:
		return Indicator{}, false
	}
	return ind, true
}

func (r *RecessionScorecard) benchmark(id string, fallback float64) float64 {
	if desc, ok := r.catalog.Lookup(id); ok && desc.Benchmark != nil {
		return *desc.Benchmark
	}
	return fallback
}

func graded(v, warning, watch float64) string {
	switch {
	case v >= warning:
		return SignalWarning
	case v >= watch:
		return SignalWatch
	default:
		return SignalClear
	}
}
