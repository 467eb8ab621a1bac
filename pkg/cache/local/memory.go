package local

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Memory is an in-process local tier backed by ristretto. Cost is the
// payload size in bytes.
type Memory struct {
	rc  *ristretto.Cache[string, envelope]
	now func() time.Time
}

// NewMemory creates a Memory cache bounded at maxBytes of payload.
func NewMemory(maxBytes int64) (*Memory, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, envelope]{
		NumCounters: 1e5,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Memory{rc: rc, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Get returns the payload if the entry is younger than ttl. Stale entries
// are evicted on sight.
func (m *Memory) Get(_ context.Context, key string, ttl time.Duration) ([]byte, bool) {
	env, ok := m.rc.Get(key)
	if !ok {
		return nil, false
	}
	if m.now().Sub(env.StoredAt) > ttl {
		m.rc.Del(key)
		return nil, false
	}
	return bytes.Clone(env.Payload), true
}

// Put stores the payload stamped with the current time. ttl also bounds
// residency inside ristretto so stale entries don't linger unread.
func (m *Memory) Put(_ context.Context, key string, payload []byte, ttl time.Duration) {
	env := envelope{StoredAt: m.now(), Payload: bytes.Clone(payload)}
	m.rc.SetWithTTL(key, env, int64(len(payload)), ttl)
	m.rc.Wait()
}

// Close releases the underlying ristretto cache.
func (m *Memory) Close() {
	m.rc.Close()
}
