package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trackside/pitwall/pkg/models"
)

type fakeCache struct {
	res    models.CacheResult
	err    error
	entity string
	params map[string]string
}

func (f *fakeCache) Get(_ context.Context, entityType string, params map[string]string, _ models.CompletionContext) (models.CacheResult, error) {
	f.entity = entityType
	f.params = params
	return f.res, f.err
}

type fakeContexts struct{}

func (fakeContexts) Context(context.Context, string, map[string]string) models.CompletionContext {
	return models.CompletionContext{}
}

type fakeMaintainer struct {
	stats    models.CacheStats
	deleted  int64
	sweepErr error
}

func (f *fakeMaintainer) Stats(context.Context) (models.CacheStats, error) { return f.stats, nil }

func (f *fakeMaintainer) SweepExpired(context.Context) (int64, error) {
	return f.deleted, f.sweepErr
}

func newTestServer(c *fakeCache, m *fakeMaintainer) *Server {
	return New(":0", c, fakeContexts{}, m)
}

func TestEntityEndpoint(t *testing.T) {
	c := &fakeCache{res: models.CacheResult{Payload: []byte(`[{"lap_number":1}]`), CacheHit: true, Source: models.SourceDurable}}
	s := newTestServer(c, &fakeMaintainer{})

	req := httptest.NewRequest(http.MethodGet, "/v1/laps?session_key=9158&driver_number=", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if c.entity != "laps" {
		t.Errorf("entity = %s", c.entity)
	}
	if _, ok := c.params["driver_number"]; ok {
		t.Error("empty query values should be dropped")
	}
	if c.params["session_key"] != "9158" {
		t.Errorf("params = %v", c.params)
	}
	if rec.Header().Get("X-Cache") != "HIT" || rec.Header().Get("X-Cache-Source") != "durable" {
		t.Errorf("cache headers = %v", rec.Header())
	}
	if rec.Body.String() != `[{"lap_number":1}]` {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestEntityEndpointOriginFailure(t *testing.T) {
	c := &fakeCache{err: errors.New("origin down")}
	s := newTestServer(c, &fakeMaintainer{})

	req := httptest.NewRequest(http.MethodGet, "/v1/laps", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestSweepEndpoint(t *testing.T) {
	m := &fakeMaintainer{deleted: 7}
	s := newTestServer(&fakeCache{}, m)

	req := httptest.NewRequest(http.MethodPost, "/internal/sweep", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["deleted"] != 7 {
		t.Errorf("deleted = %d, want 7", body["deleted"])
	}

	// Sweep is a mutation; GET is rejected.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/sweep", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET sweep status = %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	m := &fakeMaintainer{stats: models.CacheStats{Entries: 3, TotalHits: 12}}
	s := newTestServer(&fakeCache{}, m)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats models.CacheStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 3 || stats.TotalHits != 12 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(&fakeCache{}, &fakeMaintainer{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/laps", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
}

func TestUnknownPath(t *testing.T) {
	s := newTestServer(&fakeCache{}, &fakeMaintainer{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/laps/extra", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
