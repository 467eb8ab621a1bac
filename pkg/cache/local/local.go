// Package local provides the fast, best-effort cache tier. Entries carry a
// stored-at timestamp so the policy's local overlay TTL is enforced at read
// time; the tier may drop entries at any point without that being an error.
package local

import (
	"context"
	"time"
)

// Cache is the local-tier contract. Get applies ttl against the entry's
// stored-at timestamp: an older entry reads as absent and is evicted.
type Cache interface {
	Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool)
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration)
}

// envelope is the stored form: payload plus write time.
type envelope struct {
	StoredAt time.Time `json:"stored_at"`
	Payload  []byte    `json:"payload"`
}
