package enrich

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"math"

	"gopkg.in/yaml.v3"

	"econstats/internal/models"
	"econstats/internal/sources"
)

//go:embed projections.yaml
var defaultProjectionsYAML []byte

var fedPatterns = []string{
	"fed", "federal reserve", "fomc", "rate decision", "rate cut",
	"rate hike", "sep projection", "dot plot", "powell", "monetary policy",
}

// Projection is one column of the policy-rate projection table (medians).
type Projection struct {
	Year          string  `json:"year" yaml:"year"`
	FedFunds      float64 `json:"fed_funds" yaml:"fed_funds"`
	Unemployment  float64 `json:"unemployment" yaml:"unemployment"`
	CoreInflation float64 `json:"core_pce_inflation" yaml:"core_pce_inflation"`
	GDPGrowth     float64 `json:"gdp_growth" yaml:"gdp_growth"`
}

// ProjectionTable is the latest summary of economic projections.
type ProjectionTable struct {
	MeetingDate string       `json:"meeting_date" yaml:"meeting_date"`
	Projections []Projection `json:"projections" yaml:"projections"`
	LongRun     *Projection  `json:"long_run,omitempty" yaml:"long_run"`
}

// DefaultProjections returns the built-in projection table.
func DefaultProjections() (ProjectionTable, error) {
	var t ProjectionTable
	if err := yaml.Unmarshal(defaultProjectionsYAML, &t); err != nil {
		return ProjectionTable{}, fmt.Errorf("failed to parse projections: %w", err)
	}
	return t, nil
}

// FedGuidancePayload is the fed_guidance enrichment.
type FedGuidancePayload struct {
	ProjectionTable
	CurrentRate     *float64 `json:"current_rate,omitempty"`
	CurrentRateDate string   `json:"current_rate_date,omitempty"`
	ImpliedPath     string   `json:"implied_path,omitempty"`
}

// FedGuidance attaches the projection table and, with a data source, the
// latest effective policy rate and the path the medians imply.
type FedGuidance struct {
	table   ProjectionTable
	fetcher sources.Fetcher
	logger  *slog.Logger
}

// NewFedGuidance creates the enricher. fetcher may be nil.
func NewFedGuidance(table ProjectionTable, fetcher sources.Fetcher, logger *slog.Logger) *FedGuidance {
	if logger == nil {
		logger = slog.Default()
	}
	return &FedGuidance{table: table, fetcher: fetcher, logger: logger}
}

// Name implements Enricher.
func (f *FedGuidance) Name() string { return models.EnrichFedGuidance }

// Triggered implements Enricher.
func (f *FedGuidance) Triggered(query string, res *models.RoutingResult) bool {
	return triggeredBy(query, res, models.EnrichFedGuidance, fedPatterns)
}

// Build implements Enricher.
func (f *FedGuidance) Build(ctx context.Context, _ string) (any, error) {
	if len(f.table.Projections) == 0 {
		return nil, fmt.Errorf("no policy-rate projections loaded")
	}
	payload := FedGuidancePayload{ProjectionTable: f.table}
	if f.fetcher == nil {
		return payload, nil
	}

	s, err := f.fetcher.Fetch(ctx, "FEDFUNDS", 1)
	if err != nil || s.Len() == 0 {
		f.logger.Debug("Fed guidance without current rate", "error", err)
		return payload, nil
	}
	last := s.Len() - 1
	rate := s.Values[last]
	payload.CurrentRate = &rate
	payload.CurrentRateDate = s.Dates[last].Format("2006-01")
	payload.ImpliedPath = impliedPath(rate, f.table.Projections[0])
	return payload, nil
}

// impliedPath describes the move from the current rate to the next
// year-end median in quarter-point steps.
func impliedPath(current float64, next Projection) string {
	steps := int(math.Round((current - next.FedFunds) / 0.25))
	switch {
	case steps > 0:
		return fmt.Sprintf("Median projection of %.2f%% for end of %s implies about %d quarter-point %s from %.2f%%.",
			next.FedFunds, next.Year, steps, plural(steps, "cut", "cuts"), current)
	case steps < 0:
		return fmt.Sprintf("Median projection of %.2f%% for end of %s implies about %d quarter-point %s from %.2f%%.",
			next.FedFunds, next.Year, -steps, plural(-steps, "hike", "hikes"), current)
	default:
		return fmt.Sprintf("Median projection of %.2f%% for end of %s implies rates roughly unchanged from %.2f%%.",
			next.FedFunds, next.Year, current)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
