// Package sources fetches observation data for resolved series.
package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"econstats/internal/cache"
	"econstats/internal/metrics"
	"econstats/internal/models"
)

var (
	// ErrSeriesNotFound is returned when the source does not know a series.
	ErrSeriesNotFound = errors.New("sources: series not found")
	// ErrNoCredentials is returned when the source has no API key.
	ErrNoCredentials = errors.New("sources: no API key configured")
	// ErrNoData is returned when a series has no usable observations.
	ErrNoData = errors.New("sources: no observations")
)

// Data cache defaults
const (
	DefaultCacheTTL     = 30 * time.Minute
	DefaultCacheEntries = 5000

	// DefaultConcurrency caps parallel fetches in FetchAll.
	DefaultConcurrency = 8
)

// Fetcher loads up to years of history for one series. Implementations
// must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, id string, years int) (models.SeriesData, error)
}

// CachedFetcher memoizes successful fetches by series id and lookback.
type CachedFetcher struct {
	next  Fetcher
	cache *cache.Cache[models.SeriesData]
}

// NewDataCache creates the default data cache.
func NewDataCache() *cache.Cache[models.SeriesData] {
	return cache.New[models.SeriesData](DefaultCacheTTL, DefaultCacheEntries, cache.WithName("data"))
}

// NewCachedFetcher wraps next. A nil cache uses NewDataCache.
func NewCachedFetcher(next Fetcher, c *cache.Cache[models.SeriesData]) *CachedFetcher {
	if c == nil {
		c = NewDataCache()
	}
	return &CachedFetcher{next: next, cache: c}
}

// Cache returns the underlying data cache.
func (f *CachedFetcher) Cache() *cache.Cache[models.SeriesData] {
	return f.cache
}

// Fetch serves from cache or delegates. Failures are not cached.
func (f *CachedFetcher) Fetch(ctx context.Context, id string, years int) (models.SeriesData, error) {
	key := cacheKey(id, years)
	if s, ok := f.cache.Get(key); ok {
		return s, nil
	}
	s, err := f.next.Fetch(ctx, id, years)
	if err != nil {
		return models.SeriesData{}, err
	}
	f.cache.Set(key, s)
	return s, nil
}

func cacheKey(id string, years int) string {
	return fmt.Sprintf("data:%s:%d", id, years)
}

// FetchAll fetches ids concurrently and returns the successful results in
// request order. Failed series are logged and skipped.
func FetchAll(ctx context.Context, f Fetcher, ids []string, years int, logger *slog.Logger) []models.SeriesData {
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]models.SeriesData, len(ids))
	ok := make([]bool, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			s, err := f.Fetch(ctx, id, years)
			if err != nil {
				metrics.RecordFetchFailure()
				logger.Warn("Failed to fetch series", "series_id", id, "error", err)
				return nil
			}
			if s.Len() == 0 {
				logger.Warn("Series has no observations", "series_id", id)
				return nil
			}
			results[i] = s
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.SeriesData, 0, len(ids))
	for i := range results {
		if ok[i] {
			out = append(out, results[i])
		}
	}
	return out
}
