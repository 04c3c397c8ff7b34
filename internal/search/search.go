// Package search runs a query end to end: routing, data fetch, chart
// grouping, display transforms, analytics and the narrative summary.
package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"econstats/internal/catalog"
	"econstats/internal/grouping"
	"econstats/internal/llmrouter"
	"econstats/internal/models"
	"econstats/internal/narrative"
	"econstats/internal/router"
	"econstats/internal/sources"
	"econstats/internal/transform"
)

// ErrNoDataSource is returned when a search needs data but no fetcher is
// configured.
var ErrNoDataSource = errors.New("search: no data source configured")

// Lookback limits
const (
	DefaultYears = 8
	MaxYears     = 50
)

const dateLayout = "2006-01-02"

// Request is a search query with optional conversation context.
type Request struct {
	Query   string           `json:"query"`
	History []llmrouter.Turn `json:"history,omitempty"`
	Years   int              `json:"years,omitempty"`
}

// ChartSeries is one displayed series.
type ChartSeries struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Unit        string               `json:"unit"`
	Mode        transform.Mode       `json:"mode"`
	Unavailable bool                 `json:"transform_unavailable,omitempty"`
	Dates       []string             `json:"dates"`
	Values      []float64            `json:"values"`
	Analytics   *transform.Analytics `json:"analytics,omitempty"`
}

// Chart is one rendered chart.
type Chart struct {
	Title   string        `json:"title,omitempty"`
	ShowYoY bool          `json:"show_yoy"`
	Series  []ChartSeries `json:"series"`
}

// Response is the full answer to a search.
type Response struct {
	RequestID   string               `json:"request_id"`
	Query       string               `json:"query"`
	Routing     models.RoutingResult `json:"routing"`
	Charts      []Chart              `json:"charts"`
	Summary     string               `json:"summary"`
	Suggestions []string             `json:"suggestions"`
	Missing     []string             `json:"missing,omitempty"`
	Temporal    *TemporalFilter      `json:"temporal,omitempty"`
	Years       int                  `json:"years"`
}

// Service wires the search pipeline together.
type Service struct {
	router     *router.Router
	fetcher    sources.Fetcher
	engine     *transform.Engine
	grouper    *grouping.Grouper
	summarizer *narrative.Summarizer
	years      int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTransform sets the transform engine.
func WithTransform(e *transform.Engine) Option {
	return func(s *Service) {
		s.engine = e
	}
}

// WithGrouper sets the chart grouper.
func WithGrouper(g *grouping.Grouper) Option {
	return func(s *Service) {
		s.grouper = g
	}
}

// WithSummarizer sets the narrative summarizer.
func WithSummarizer(n *narrative.Summarizer) Option {
	return func(s *Service) {
		s.summarizer = n
	}
}

// WithYears sets the default lookback in years.
func WithYears(years int) Option {
	return func(s *Service) {
		if years > 0 {
			s.years = min(years, MaxYears)
		}
	}
}

// WithClock sets the clock used to interpret relative dates in queries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a search service. fetcher may be nil, in which case Search
// fails with ErrNoDataSource for any query that resolves to series.
func New(r *router.Router, fetcher sources.Fetcher, opts ...Option) *Service {
	s := &Service{
		router:  r,
		fetcher: fetcher,
		years:   DefaultYears,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = transform.New(catalog.Default())
	}
	if s.grouper == nil {
		s.grouper = grouping.New(nil, grouping.DefaultOptions(), s.logger)
	}
	if s.summarizer == nil {
		s.summarizer = narrative.New(nil, nil, s.logger)
	}
	return s
}

// Search answers req. A query that routes nowhere is not an error: the
// response carries the empty routing result and its explanation.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp := &Response{
		RequestID:   uuid.NewString(),
		Query:       req.Query,
		Charts:      []Chart{},
		Suggestions: narrative.Suggestions(req.Query),
	}

	routeQuery := req.Query
	filter, hasFilter := ExtractTemporalFilter(req.Query, s.now())
	if hasFilter {
		resp.Temporal = &filter
		routeQuery = filter.stripPhrase(req.Query)
	}

	resp.Routing = s.router.RouteWithHistory(ctx, routeQuery, req.History)
	if resp.Routing.Empty() {
		resp.Summary = resp.Routing.Explanation
		return resp, nil
	}
	if s.fetcher == nil {
		return nil, ErrNoDataSource
	}

	resp.Years = s.lookback(req, filter)
	data := sources.FetchAll(ctx, s.fetcher, resp.Routing.Series, resp.Years, s.logger)
	resp.Missing = missing(resp.Routing.Series, data)

	var analytics []transform.Analytics
	for _, g := range s.grouper.Group(data, &resp.Routing) {
		chart := Chart{Title: g.Title, ShowYoY: g.ShowYoY}
		yoy := g.ShowYoY
		for _, member := range g.Members {
			tr := s.engine.Apply(member, &yoy)
			tr.Series = filter.Window(tr.Series)
			cs := chartSeries(tr)
			if a, ok := s.engine.Analyze(tr); ok {
				cs.Analytics = &a
				analytics = append(analytics, a)
			}
			chart.Series = append(chart.Series, cs)
		}
		resp.Charts = append(resp.Charts, chart)
	}

	resp.Summary = s.summarizer.Summarize(ctx, req.Query, analytics)

	s.logger.Info("Search completed",
		"request_id", resp.RequestID,
		"query", req.Query,
		"route_type", resp.Routing.RouteType,
		"charts", len(resp.Charts),
		"missing", len(resp.Missing),
		"years", resp.Years,
		"duration", time.Since(start),
	)
	return resp, nil
}

// lookback picks the fetch window: an explicit request wins, then a date
// window named in the query, then the query's wording. AllHistory (0)
// fetches everything.
func (s *Service) lookback(req Request, filter TemporalFilter) int {
	if req.Years > 0 {
		return min(req.Years, MaxYears)
	}
	if filter.Years > 0 {
		return filter.Years
	}
	return SmartYears(req.Query, s.years)
}

func chartSeries(tr transform.Result) ChartSeries {
	s := tr.Series
	n := s.Len()
	cs := ChartSeries{
		ID:          s.ID,
		Name:        s.Info.Name,
		Unit:        s.Info.Unit,
		Mode:        tr.Mode,
		Unavailable: tr.Unavailable,
		Dates:       make([]string, n),
		Values:      make([]float64, n),
	}
	for i := 0; i < n; i++ {
		cs.Dates[i] = s.Dates[i].Format(dateLayout)
		cs.Values[i] = s.Values[i]
	}
	return cs
}

func missing(requested []string, got []models.SeriesData) []string {
	have := make(map[string]bool, len(got))
	for _, s := range got {
		have[s.ID] = true
	}
	var out []string
	for _, id := range requested {
		if !have[id] {
			out = append(out, id)
		}
	}
	return out
}
