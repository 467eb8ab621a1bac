package models

import "time"

// Source identifies which layer served a cached response.
type Source string

const (
	SourceLocal   Source = "local"
	SourceDurable Source = "durable"
	SourceOrigin  Source = "origin"
)

// CacheEntry is a row in the durable cache store.
type CacheEntry struct {
	CacheKey   string            `json:"cache_key"`
	EntityType string            `json:"entity_type"`
	Parameters map[string]string `json:"parameters"`
	Payload    []byte            `json:"payload"`
	CachedAt   time.Time         `json:"cached_at"`
	// ExpiresAt is nil for entries written under a permanent policy
	// decision. Permanent entries are never swept.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	HitCount  int64      `json:"hit_count"`
	SizeBytes int64      `json:"size_bytes"`
}

// CacheResult is what the orchestrator returns to callers.
type CacheResult struct {
	Payload  []byte `json:"payload"`
	CacheHit bool   `json:"cache_hit"`
	Source   Source `json:"source"`
}

// CacheStats aggregates durable store state and a 7-day analytics rollup.
type CacheStats struct {
	Entries        int64             `json:"entries"`
	TotalSizeBytes int64             `json:"total_size_bytes"`
	TotalHits      int64             `json:"total_hits"`
	ExpiredPending int64             `json:"expired_pending"`
	PerEntity      []EntityAnalytics `json:"per_entity"`
}

// EntityAnalytics is one row of the rollup, ordered by request volume.
type EntityAnalytics struct {
	EntityType        string  `json:"entity_type"`
	TotalRequests     int64   `json:"total_requests"`
	CacheHits         int64   `json:"cache_hits"`
	CacheMisses       int64   `json:"cache_misses"`
	Errors            int64   `json:"errors"`
	AvgResponseTimeMS float64 `json:"avg_response_time_ms"`
}
