// Package enrich attaches special-topic payloads (policy-rate projections,
// recession scorecard, equity valuation) to a routing result. Enrichers
// only add to Enrichments; they never touch the resolved series.
package enrich

import (
	"context"
	"errors"
	"log/slog"

	"econstats/internal/metrics"
	"econstats/internal/models"
	"econstats/internal/validation"
)

// ErrNoFetcher is returned by enrichers that need live data when no data
// source is configured.
var ErrNoFetcher = errors.New("enrich: no data source configured")

// Enricher builds one supplementary payload.
type Enricher interface {
	// Name is the Enrichments key.
	Name() string
	// Triggered reports whether the query or the routing flags call for it.
	Triggered(query string, res *models.RoutingResult) bool
	// Build produces the payload.
	Build(ctx context.Context, query string) (any, error)
}

// Run applies every triggered enricher to res. Failures are logged and
// counted; the result keeps its series either way.
func Run(ctx context.Context, query string, res *models.RoutingResult, logger *slog.Logger, enrichers ...Enricher) {
	if res == nil || res.Empty() {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	for _, e := range enrichers {
		if e == nil || !e.Triggered(query, res) {
			continue
		}
		payload, err := e.Build(ctx, query)
		if err != nil {
			metrics.RecordEnrichFailure(e.Name())
			logger.Warn("Enrichment failed", "enricher", e.Name(), "query", query, "error", err)
			continue
		}
		if res.Enrichments == nil {
			res.Enrichments = make(map[string]any)
		}
		res.Enrichments[e.Name()] = payload
		logger.Debug("Attached enrichment", "enricher", e.Name(), "query", query)
	}
}

// triggeredBy matches whole-word patterns in the query, or the routing flag.
func triggeredBy(query string, res *models.RoutingResult, flag string, patterns []string) bool {
	if res != nil && res.HasFlag(flag) {
		return true
	}
	_, ok := validation.FirstPhrase(query, patterns)
	return ok
}

// MarketQuery marks results the model judged to be about markets, so the
// caller can render market context.
type MarketQuery struct{}

// Name implements Enricher.
func (MarketQuery) Name() string { return models.EnrichMarketQuery }

// Triggered implements Enricher.
func (MarketQuery) Triggered(_ string, res *models.RoutingResult) bool {
	return res != nil && res.HasFlag(models.EnrichMarketQuery)
}

// Build implements Enricher.
func (MarketQuery) Build(context.Context, string) (any, error) {
	return true, nil
}
