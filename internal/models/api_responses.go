package models

import "econstats/internal/cache"

// HealthResponse contains liveness, configured capabilities and cache stats.
type HealthResponse struct {
	Status       string          `json:"status"`
	Version      string          `json:"version"`
	Capabilities map[string]bool `json:"capabilities"`
	Caches       []cache.Stats   `json:"caches"`
}

// BucketKeys lists the plan keys in one topic bucket.
type BucketKeys struct {
	Name string   `json:"name"`
	Keys []string `json:"keys"`
}

// CatalogResponse summarizes the plan and series catalogs.
type CatalogResponse struct {
	Plans   int          `json:"plans"`
	Series  int          `json:"series"`
	Buckets []BucketKeys `json:"buckets"`
}

// PlanResponse contains the curated plan an exact lookup resolved to.
type PlanResponse struct {
	Key  string     `json:"key"`
	Plan *QueryPlan `json:"plan"`
}
