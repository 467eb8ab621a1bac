// Package sqlite implements the durable cache store: cache entries with
// explicit expiry and hit counters, request logs, and daily analytics.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/trackside/pitwall/pkg/models"
)

const createCacheTable = `
CREATE TABLE IF NOT EXISTS api_cache (
	cache_key TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	parameters TEXT NOT NULL,
	payload BLOB NOT NULL,
	cached_at DATETIME NOT NULL,
	expires_at DATETIME,
	hit_count INTEGER NOT NULL DEFAULT 0,
	size_bytes INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_expires ON api_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_cache_entity ON api_cache(entity_type);
`

const createLogTable = `
CREATE TABLE IF NOT EXISTS request_logs (
	request_id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	parameters TEXT NOT NULL,
	cache_hit INTEGER NOT NULL,
	response_time_ms INTEGER NOT NULL,
	status_code INTEGER NOT NULL,
	error_message TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_created ON request_logs(created_at);
`

const createAnalyticsTable = `
CREATE TABLE IF NOT EXISTS cache_analytics (
	date TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	cache_hits INTEGER NOT NULL DEFAULT 0,
	cache_misses INTEGER NOT NULL DEFAULT 0,
	total_requests INTEGER NOT NULL DEFAULT 0,
	avg_response_time_ms REAL NOT NULL DEFAULT 0,
	errors INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (date, entity_type)
);
`

// Store is the SQLite-backed durable cache adapter.
type Store struct {
	db  *sql.DB
	now func() time.Time

	// async tracks fire-and-forget hit-count increments so tests (and
	// Close) can wait for them.
	async sync.WaitGroup
}

// New opens the database at dbPath and runs auto-migration.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	for _, stmt := range []string{createCacheTable, createLogTable, createAnalyticsTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate cache db: %w", err)
		}
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Get retrieves a cached payload. When permanent is true the expiry check is
// skipped: permanent entries ignore expires_at by contract. A hit bumps the
// entry's hit counter in the background; that write is best-effort and never
// surfaces to the caller.
func (s *Store) Get(ctx context.Context, key string, permanent bool) ([]byte, bool, error) {
	var payload []byte
	var expiresAt sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM api_cache WHERE cache_key = ?`, key,
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	if !permanent && expiresAt.Valid && expiresAt.Time.Before(s.now()) {
		return nil, false, nil
	}

	s.async.Add(1)
	go func() {
		defer s.async.Done()
		if _, err := s.db.Exec(
			`UPDATE api_cache SET hit_count = hit_count + 1 WHERE cache_key = ?`, key,
		); err != nil {
			log.Printf("hit count update for %s: %v", key, err)
		}
	}()

	return payload, true, nil
}

// Put upserts a cache entry. A repeated put for the same key fully replaces
// the previous row, including resetting hit_count to zero: payload freshness
// wins over hit-count continuity. Permanent entries get a NULL expires_at.
func (s *Store) Put(ctx context.Context, key, entityType string, params map[string]string, payload []byte, ttl time.Duration, permanent bool) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}

	now := s.now()
	var expiresAt any
	if !permanent {
		expiresAt = now.Add(ttl)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO api_cache (cache_key, entity_type, parameters, payload, cached_at, expires_at, hit_count, size_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		key, entityType, string(paramsJSON), payload, now, expiresAt, int64(len(payload)),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// SweepExpired deletes entries whose expires_at is in the past and returns
// how many were removed. Permanent entries (NULL expires_at) are untouched.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM api_cache WHERE expires_at IS NOT NULL AND expires_at < ?`, s.now(),
	)
	if err != nil {
		return 0, fmt.Errorf("sweep expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep expired: %w", err)
	}
	return n, nil
}

// Clear removes every cache entry, permanent or not. Request logs and
// analytics are kept.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM api_cache`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Stats reports aggregate cache state plus a 7-day analytics rollup grouped
// by entity type, ordered by request volume descending.
func (s *Store) Stats(ctx context.Context) (models.CacheStats, error) {
	var st models.CacheStats

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0), COALESCE(SUM(hit_count), 0) FROM api_cache`,
	).Scan(&st.Entries, &st.TotalSizeBytes, &st.TotalHits)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM api_cache WHERE expires_at IS NOT NULL AND expires_at < ?`, s.now(),
	).Scan(&st.ExpiredPending)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}

	since := s.now().AddDate(0, 0, -7).Format("2006-01-02")
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_type, SUM(total_requests), SUM(cache_hits), SUM(cache_misses), SUM(errors),
		        CASE WHEN SUM(total_requests) > 0
		             THEN SUM(avg_response_time_ms * total_requests) / SUM(total_requests)
		             ELSE 0 END
		 FROM cache_analytics WHERE date >= ?
		 GROUP BY entity_type ORDER BY SUM(total_requests) DESC`,
		since,
	)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("analytics rollup: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ea models.EntityAnalytics
		if err := rows.Scan(&ea.EntityType, &ea.TotalRequests, &ea.CacheHits, &ea.CacheMisses, &ea.Errors, &ea.AvgResponseTimeMS); err != nil {
			return models.CacheStats{}, fmt.Errorf("scan rollup: %w", err)
		}
		st.PerEntity = append(st.PerEntity, ea)
	}
	return st, rows.Err()
}

// LogRequest appends one request log entry. A missing request id or created
// timestamp is filled in.
func (s *Store) LogRequest(ctx context.Context, entry models.RequestLogEntry) error {
	if entry.RequestID == "" {
		entry.RequestID = generateRequestID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	paramsJSON, err := json.Marshal(entry.Parameters)
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO request_logs (request_id, entity_type, parameters, cache_hit, response_time_ms, status_code, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID, entry.EntityType, string(paramsJSON), entry.CacheHit,
		entry.ResponseTimeMS, entry.StatusCode, nullableString(entry.ErrorMessage), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("log request: %w", err)
	}
	return nil
}

// UpdateAnalytics upserts today's counters for an entity type. The update is
// a single atomic statement; the running mean reads the pre-update
// total_requests, so under fully concurrent writers it can drift by one
// sample from the authoritative count.
func (s *Store) UpdateAnalytics(ctx context.Context, entityType string, cacheHit bool, responseTimeMS int64, isError bool) error {
	now := s.now()
	hits, misses, errs := 0, 0, 0
	if cacheHit {
		hits = 1
	} else {
		misses = 1
	}
	if isError {
		errs = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_analytics (date, entity_type, cache_hits, cache_misses, total_requests, avg_response_time_ms, errors, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?, ?)
		 ON CONFLICT(date, entity_type) DO UPDATE SET
		   cache_hits = cache_hits + excluded.cache_hits,
		   cache_misses = cache_misses + excluded.cache_misses,
		   errors = errors + excluded.errors,
		   avg_response_time_ms = (avg_response_time_ms * total_requests + excluded.avg_response_time_ms) / (total_requests + 1),
		   total_requests = total_requests + 1,
		   updated_at = excluded.updated_at`,
		now.Format("2006-01-02"), entityType, hits, misses, float64(responseTimeMS), errs, now,
	)
	if err != nil {
		return fmt.Errorf("update analytics: %w", err)
	}
	return nil
}

// Analytics returns the stored row for one (date, entity_type) pair.
func (s *Store) Analytics(ctx context.Context, date, entityType string) (models.DailyAnalyticsRow, error) {
	var row models.DailyAnalyticsRow
	err := s.db.QueryRowContext(ctx,
		`SELECT date, entity_type, cache_hits, cache_misses, total_requests, avg_response_time_ms, errors, updated_at
		 FROM cache_analytics WHERE date = ? AND entity_type = ?`,
		date, entityType,
	).Scan(&row.Date, &row.EntityType, &row.CacheHits, &row.CacheMisses,
		&row.TotalRequests, &row.AvgResponseTimeMS, &row.Errors, &row.UpdatedAt)
	if err != nil {
		return models.DailyAnalyticsRow{}, fmt.Errorf("read analytics: %w", err)
	}
	return row, nil
}

// Close waits for outstanding background writes and releases the database.
func (s *Store) Close() error {
	s.async.Wait()
	return s.db.Close()
}

// generateRequestID creates an id like req_20240615_a3f9c2.
func generateRequestID() string {
	b := make([]byte, 3)
	rand.Read(b)
	return fmt.Sprintf("req_%s_%s", time.Now().UTC().Format("20060102"), hex.EncodeToString(b))
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
