package local

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a shared local tier for multi-instance deployments. Every
// operation fails soft: if Redis is unreachable the read is a miss and the
// write is discarded, since the durable store and origin remain behind it.
type Redis struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedis creates a Redis-backed local tier.
func NewRedis(addr, password string, db int) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{rdb: rdb, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the payload if the stored entry is younger than ttl.
func (r *Redis) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		// Miss and connection errors look the same to the caller.
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("local redis: bad envelope for %s: %v", key, err)
		r.rdb.Del(ctx, key)
		return nil, false
	}
	if r.now().Sub(env.StoredAt) > ttl {
		r.rdb.Del(ctx, key)
		return nil, false
	}
	return env.Payload, true
}

// Put stores the payload with ttl as the Redis expiration.
func (r *Redis) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	raw, err := json.Marshal(envelope{StoredAt: r.now(), Payload: payload})
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("local redis: set %s: %v", key, err)
	}
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
