package jobs

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper is a cache that can drop its expired entries.
type Sweeper interface {
	Name() string
	Sweep() int
}

// CacheJanitor periodically removes expired entries from in-memory caches.
type CacheJanitor struct {
	caches   []Sweeper
	interval time.Duration
	logger   *slog.Logger
}

// NewCacheJanitor creates a new cache janitor.
func NewCacheJanitor(interval time.Duration, logger *slog.Logger, caches ...Sweeper) *CacheJanitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheJanitor{
		caches:   caches,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the background sweep loop. It returns when ctx is done.
func (j *CacheJanitor) Start(ctx context.Context) {
	if j.interval <= 0 || len(j.caches) == 0 {
		return
	}
	j.logger.Info("Cache janitor started", "interval", j.interval, "caches", len(j.caches))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Cache janitor stopped")
			return
		case <-ticker.C:
			j.SweepAll()
		}
	}
}

// SweepAll sweeps every cache once and returns the number of entries removed.
func (j *CacheJanitor) SweepAll() int {
	total := 0
	for _, c := range j.caches {
		n := c.Sweep()
		if n > 0 {
			j.logger.Debug("Swept expired cache entries", "cache", c.Name(), "removed", n)
		}
		total += n
	}
	return total
}
