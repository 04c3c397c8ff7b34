package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"econstats/internal/catalog"
	"econstats/internal/models"
)

// DefaultFREDEndpoint is the FRED API base URL.
const DefaultFREDEndpoint = "https://api.stlouisfed.org/fred"

const (
	fredDateLayout  = "2006-01-02"
	maxFREDBodySize = 8 * 1024 * 1024
	fredTimeout     = 15 * time.Second
)

var tracer = otel.Tracer("econstats/internal/sources")

// FREDOption configures a FRED client.
type FREDOption func(*FRED)

// WithFREDEndpoint overrides the API base URL.
func WithFREDEndpoint(endpoint string) FREDOption {
	return func(f *FRED) {
		f.endpoint = endpoint
	}
}

// WithFREDHTTPClient sets the HTTP client.
func WithFREDHTTPClient(c *http.Client) FREDOption {
	return func(f *FRED) {
		f.httpClient = c
	}
}

// WithFREDClock sets the clock used to compute the observation window.
func WithFREDClock(now func() time.Time) FREDOption {
	return func(f *FRED) {
		f.now = now
	}
}

// WithFREDCatalog sets the catalog used for display metadata.
func WithFREDCatalog(c *catalog.Catalog) FREDOption {
	return func(f *FRED) {
		f.catalog = c
	}
}

// WithFREDLogger sets the logger.
func WithFREDLogger(logger *slog.Logger) FREDOption {
	return func(f *FRED) {
		f.logger = logger
	}
}

// FRED fetches observations from the St. Louis Fed API.
type FRED struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	catalog    *catalog.Catalog
	now        func() time.Time
	logger     *slog.Logger
}

type fredObservations struct {
	ErrorMessage string `json:"error_message"`
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

type fredSeries struct {
	ErrorMessage string `json:"error_message"`
	Series       []struct {
		Title     string `json:"title"`
		Units     string `json:"units"`
		Frequency string `json:"frequency"`
	} `json:"seriess"`
}

// NewFRED creates a FRED client.
func NewFRED(apiKey string, opts ...FREDOption) *FRED {
	f := &FRED{
		apiKey:   apiKey,
		endpoint: DefaultFREDEndpoint,
		catalog:  catalog.Default(),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.httpClient == nil {
		f.httpClient = &http.Client{Timeout: fredTimeout}
	}
	return f
}

// Available reports whether the client has an API key.
func (f *FRED) Available() bool {
	return f != nil && f.apiKey != ""
}

// Fetch loads the last years of observations for id. years <= 0 loads the
// full history. Missing values (".") are skipped.
func (f *FRED) Fetch(ctx context.Context, id string, years int) (models.SeriesData, error) {
	if !f.Available() {
		return models.SeriesData{}, ErrNoCredentials
	}

	ctx, span := tracer.Start(ctx, "fred.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("series.id", id), attribute.Int("series.years", years))

	s, err := f.fetch(ctx, id, years)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.SeriesData{}, err
	}
	span.SetAttributes(attribute.Int("series.observations", s.Len()))
	return s, nil
}

func (f *FRED) fetch(ctx context.Context, id string, years int) (models.SeriesData, error) {
	end := f.now().UTC()
	start := time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)
	if years > 0 {
		start = end.AddDate(-years, 0, 0)
	}

	var obs fredObservations
	err := f.get(ctx, "/series/observations", url.Values{
		"series_id":         {id},
		"observation_start": {start.Format(fredDateLayout)},
		"observation_end":   {end.Format(fredDateLayout)},
	}, &obs)
	if err != nil {
		return models.SeriesData{}, fmt.Errorf("failed to fetch observations for %s: %w", id, err)
	}
	if obs.ErrorMessage != "" {
		return models.SeriesData{}, fmt.Errorf("%w: %s: %s", ErrSeriesNotFound, id, obs.ErrorMessage)
	}

	s := models.SeriesData{ID: id}
	for _, o := range obs.Observations {
		if o.Value == "" || o.Value == "." {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		d, err := time.Parse(fredDateLayout, o.Date)
		if err != nil {
			continue
		}
		s.Dates = append(s.Dates, d)
		s.Values = append(s.Values, v)
	}
	if len(s.Values) == 0 {
		return models.SeriesData{}, fmt.Errorf("%w: %s", ErrNoData, id)
	}

	s.Info = f.info(ctx, id)
	return s, nil
}

// info prefers catalog metadata and only asks FRED for unknown series.
func (f *FRED) info(ctx context.Context, id string) models.SeriesInfo {
	if desc, ok := f.catalog.Lookup(id); ok {
		return models.SeriesInfo{Name: desc.Name, Unit: desc.Unit, Frequency: desc.Frequency, Source: desc.Source}
	}

	info := models.SeriesInfo{Name: id, Frequency: models.FrequencyMonthly, Source: "FRED"}
	var meta fredSeries
	if err := f.get(ctx, "/series", url.Values{"series_id": {id}}, &meta); err != nil || len(meta.Series) == 0 {
		f.logger.Debug("No FRED metadata for series", "series_id", id, "error", err)
		return info
	}
	m := meta.Series[0]
	if m.Title != "" {
		info.Name = m.Title
	}
	info.Unit = m.Units
	if m.Frequency != "" {
		info.Frequency = parseFrequency(m.Frequency)
	}
	return info
}

func (f *FRED) get(ctx context.Context, path string, params url.Values, v any) error {
	params.Set("api_key", f.apiKey)
	params.Set("file_type", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFREDBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	// FRED reports unknown series as 400 with an error_message body.
	if resp.StatusCode >= 500 {
		return fmt.Errorf("FRED returned %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

func parseFrequency(s string) models.Frequency {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "quarter"):
		return models.FrequencyQuarterly
	case strings.Contains(s, "annual"):
		return models.FrequencyAnnual
	case strings.Contains(s, "week"):
		return models.FrequencyWeekly
	case strings.Contains(s, "daily"):
		return models.FrequencyDaily
	default:
		return models.FrequencyMonthly
	}
}
