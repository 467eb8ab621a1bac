// Package server is the thin HTTP shell in front of the cache orchestrator:
// entity endpoints, maintenance endpoints, health check, metrics.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trackside/pitwall/pkg/models"
)

// Getter serves cached entity reads; in production it is the orchestrator.
type Getter interface {
	Get(ctx context.Context, entityType string, params map[string]string, cc models.CompletionContext) (models.CacheResult, error)
}

// ContextBuilder derives the completion context for a request.
type ContextBuilder interface {
	Context(ctx context.Context, entityType string, params map[string]string) models.CompletionContext
}

// Maintainer exposes the durable store's maintenance surface.
type Maintainer interface {
	Stats(ctx context.Context) (models.CacheStats, error)
	SweepExpired(ctx context.Context) (int64, error)
}

// Server routes requests to the cache subsystem.
type Server struct {
	listen   string
	cache    Getter
	contexts ContextBuilder
	store    Maintainer
	mux      *http.ServeMux
}

// New creates a Server.
func New(listen string, cache Getter, contexts ContextBuilder, store Maintainer) *Server {
	s := &Server{
		listen:   listen,
		cache:    cache,
		contexts: contexts,
		store:    store,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("/v1/", s.handleEntity)
	s.mux.HandleFunc("/internal/stats", s.handleStats)
	s.mux.HandleFunc("/internal/sweep", s.handleSweep)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

// ServeHTTP implements http.Handler with permissive CORS, matching the
// upstream API's browser-facing consumers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown on ctx
// cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("pitwall listening on %s", s.listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	entity := strings.TrimPrefix(r.URL.Path, "/v1/")
	if entity == "" || strings.Contains(entity, "/") {
		writeJSONError(w, http.StatusNotFound, "unknown endpoint")
		return
	}

	params := map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 && vs[0] != "" {
			params[k] = vs[0]
		}
	}

	cc := s.contexts.Context(r.Context(), entity, params)
	res, err := s.cache.Get(r.Context(), entity, params, cc)
	if err != nil {
		log.Printf("get %s: %v", entity, err)
		writeJSONError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache-Source", string(res.Source))
	if res.CacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Write(res.Payload)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		log.Printf("stats: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	n, err := s.store.SweepExpired(r.Context())
	if err != nil {
		log.Printf("sweep: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "sweep failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
