// Package orchestrator chains the cache layers: local tier first, durable
// store second, origin last, with asynchronous write-back and per-request
// accounting.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trackside/pitwall/pkg/cache/local"
	"github.com/trackside/pitwall/pkg/cachekey"
	"github.com/trackside/pitwall/pkg/models"
	"github.com/trackside/pitwall/pkg/policy"
)

// Fetcher fetches authoritative data from the upstream API.
type Fetcher interface {
	Fetch(ctx context.Context, entityType string, params map[string]string) ([]byte, error)
}

// Store is the durable cache layer the orchestrator writes through.
type Store interface {
	Get(ctx context.Context, key string, permanent bool) ([]byte, bool, error)
	Put(ctx context.Context, key, entityType string, params map[string]string, payload []byte, ttl time.Duration, permanent bool) error
	LogRequest(ctx context.Context, entry models.RequestLogEntry) error
	UpdateAnalytics(ctx context.Context, entityType string, cacheHit bool, responseTimeMS int64, isError bool) error
}

// Orchestrator implements the read-through chain. Each request is handled
// statelessly; the only shared state is the adapters themselves and the
// write-back group.
type Orchestrator struct {
	policy  *policy.Engine
	local   local.Cache
	store   Store
	origin  Fetcher
	metrics *Metrics
	logging bool
	now     func() time.Time

	// bg tracks fire-and-forget cache writes. The request path never
	// waits on it; Wait exists for shutdown and for tests that assert
	// write-back completion.
	bg errgroup.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithDiagnosticLogging toggles per-request log and analytics writes.
func WithDiagnosticLogging(enabled bool) Option {
	return func(o *Orchestrator) { o.logging = enabled }
}

// New creates an Orchestrator. The local tier may be nil; the store and
// origin must not be.
func New(pol *policy.Engine, loc local.Cache, st Store, org Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		policy: pol,
		local:  loc,
		store:  st,
		origin: org,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Get serves one request through the chain: local tier, durable store,
// origin. Cache-layer failures degrade to misses; only an origin failure is
// returned to the caller, and nothing is written on that path. Origin
// payloads are written back to both layers without blocking the response.
func (o *Orchestrator) Get(ctx context.Context, entityType string, params map[string]string, cc models.CompletionContext) (models.CacheResult, error) {
	params = pruneEmpty(params)
	dec := o.policy.Resolve(entityType, cc)
	key := cachekey.Build(entityType, params)
	start := o.now()

	if dec.UseLocal && o.local != nil {
		if payload, ok := o.local.Get(ctx, key, dec.LocalTTL); ok {
			res := models.CacheResult{Payload: payload, CacheHit: true, Source: models.SourceLocal}
			o.account(ctx, entityType, params, res, start, nil)
			return res, nil
		}
	}

	if dec.UseDurable && o.store != nil {
		payload, ok, err := o.store.Get(ctx, key, dec.Permanent)
		if err != nil {
			// The origin is still the source of truth; a broken
			// durable layer is a miss, not a failure.
			log.Printf("durable get %s: %v", key, err)
		}
		if ok {
			if dec.UseLocal && o.local != nil {
				o.bg.Go(func() error {
					o.local.Put(context.Background(), key, payload, dec.LocalTTL)
					return nil
				})
			}
			res := models.CacheResult{Payload: payload, CacheHit: true, Source: models.SourceDurable}
			o.account(ctx, entityType, params, res, start, nil)
			return res, nil
		}
	}

	fetchStart := o.now()
	payload, err := o.origin.Fetch(ctx, entityType, params)
	o.metrics.originFetch(o.now().Sub(fetchStart).Seconds())
	if err != nil {
		o.metrics.originError(entityType)
		o.account(ctx, entityType, params, models.CacheResult{}, start, err)
		return models.CacheResult{}, fmt.Errorf("origin fetch: %w", err)
	}

	if dec.UseDurable && o.store != nil {
		o.bg.Go(func() error {
			if err := o.store.Put(context.Background(), key, entityType, params, payload, dec.TTL, dec.Permanent); err != nil {
				log.Printf("durable put %s: %v", key, err)
			}
			return nil
		})
	}
	if dec.UseLocal && o.local != nil {
		o.bg.Go(func() error {
			o.local.Put(context.Background(), key, payload, dec.LocalTTL)
			return nil
		})
	}

	res := models.CacheResult{Payload: payload, CacheHit: false, Source: models.SourceOrigin}
	o.account(ctx, entityType, params, res, start, nil)
	return res, nil
}

// Wait blocks until all scheduled write-backs have finished.
func (o *Orchestrator) Wait() error {
	return o.bg.Wait()
}

// account records metrics and, when diagnostic logging is enabled, the
// request log entry and analytics counters. It runs before the response is
// returned (elapsed time feeds the stored metrics) but its failures never
// alter the outcome.
func (o *Orchestrator) account(ctx context.Context, entityType string, params map[string]string, res models.CacheResult, start time.Time, fetchErr error) {
	elapsed := o.now().Sub(start).Milliseconds()

	if fetchErr == nil {
		o.metrics.served(entityType, string(res.Source))
	}

	if !o.logging || o.store == nil {
		return
	}

	status := http.StatusOK
	errMsg := ""
	if fetchErr != nil {
		status = http.StatusBadGateway
		errMsg = fetchErr.Error()
	}

	entry := models.RequestLogEntry{
		EntityType:     entityType,
		Parameters:     params,
		CacheHit:       res.CacheHit,
		ResponseTimeMS: elapsed,
		StatusCode:     status,
		ErrorMessage:   errMsg,
	}
	if err := o.store.LogRequest(ctx, entry); err != nil {
		log.Printf("request log %s: %v", entityType, err)
	}
	if err := o.store.UpdateAnalytics(ctx, entityType, res.CacheHit, elapsed, fetchErr != nil); err != nil {
		log.Printf("analytics update %s: %v", entityType, err)
	}
}

// pruneEmpty drops parameters with empty values before key construction.
func pruneEmpty(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
