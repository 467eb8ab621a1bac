package models

import "time"

// RequestLogEntry records one inbound request when diagnostic logging is
// enabled. Entries are append-only; retention is an external concern.
type RequestLogEntry struct {
	RequestID      string            `json:"request_id"`
	EntityType     string            `json:"entity_type"`
	Parameters     map[string]string `json:"parameters"`
	CacheHit       bool              `json:"cache_hit"`
	ResponseTimeMS int64             `json:"response_time_ms"`
	StatusCode     int               `json:"status_code"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// DailyAnalyticsRow aggregates request counters per (date, entity_type).
// The average response time is a running mean seeded by the previous
// total_requests count; under concurrent writers it may drift by one sample
// from the authoritative count.
type DailyAnalyticsRow struct {
	Date              string    `json:"date"`
	EntityType        string    `json:"entity_type"`
	CacheHits         int64     `json:"cache_hits"`
	CacheMisses       int64     `json:"cache_misses"`
	TotalRequests     int64     `json:"total_requests"`
	AvgResponseTimeMS float64   `json:"avg_response_time_ms"`
	Errors            int64     `json:"errors"`
	UpdatedAt         time.Time `json:"updated_at"`
}
