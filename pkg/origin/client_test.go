package origin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/laps" {
			t.Errorf("path = %s, want /v1/laps", r.URL.Path)
		}
		if got := r.URL.Query().Get("session_key"); got != "9158" {
			t.Errorf("session_key = %s, want 9158", got)
		}
		w.Write([]byte(`[{"lap_number":1}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	body, err := c.Fetch(context.Background(), "laps", map[string]string{"session_key": "9158"})
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `[{"lap_number":1}]` {
		t.Errorf("body = %s", body)
	}
}

func TestFetchNoParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	if _, err := c.Fetch(context.Background(), "meetings", nil); err != nil {
		t.Fatal(err)
	}
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	if _, err := c.Fetch(context.Background(), "laps", nil); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestFetchTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second)
	if _, err := c.Fetch(context.Background(), "laps", nil); err == nil {
		t.Fatal("expected transport error")
	}
}
