package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trackside/pitwall/pkg/models"
	"github.com/trackside/pitwall/pkg/policy"
)

// fakeGetter returns canned payloads per entity type.
type fakeGetter struct {
	payloads map[string][]byte
	err      error
	calls    []string
}

func (f *fakeGetter) Get(_ context.Context, entityType string, _ map[string]string, _ models.CompletionContext) (models.CacheResult, error) {
	f.calls = append(f.calls, entityType)
	if f.err != nil {
		return models.CacheResult{}, f.err
	}
	return models.CacheResult{Payload: f.payloads[entityType]}, nil
}

func newTestResolver(g *fakeGetter) *Resolver {
	return New(g, policy.New(nil))
}

func TestContextSeasonalOnlyParsesYear(t *testing.T) {
	g := &fakeGetter{}
	r := newTestResolver(g)

	cc := r.Context(context.Background(), "meetings", map[string]string{"year": "2023"})
	if cc.Year != 2023 {
		t.Errorf("year = %d, want 2023", cc.Year)
	}
	if len(g.calls) != 0 {
		t.Errorf("seasonal context should need no lookups, got %v", g.calls)
	}
}

func TestContextSessionLevel(t *testing.T) {
	g := &fakeGetter{payloads: map[string][]byte{
		"sessions": []byte(`[{"session_key":9158,"date_end":"2024-06-15T15:00:00+00:00"}]`),
	}}
	r := newTestResolver(g)

	cc := r.Context(context.Background(), "laps", map[string]string{"session_key": "9158"})
	if cc.SessionEnd == nil {
		t.Fatal("session end not resolved")
	}
	want := time.Date(2024, 6, 15, 15, 0, 0, 0, time.UTC)
	if !cc.SessionEnd.Equal(want) {
		t.Errorf("session end = %s, want %s", cc.SessionEnd, want)
	}
}

func TestContextMeetingLevel(t *testing.T) {
	g := &fakeGetter{payloads: map[string][]byte{
		"sessions": []byte(`[{"date_end":"2024-06-14T12:00:00+00:00"},{"date_end":"2024-06-15T15:00:00+00:00"}]`),
		"meetings": []byte(`[{"date_end":"2024-06-15T18:00:00+00:00"}]`),
	}}
	r := newTestResolver(g)

	cc := r.Context(context.Background(), "sessions", map[string]string{"meeting_key": "1219", "year": "2024"})
	if len(cc.SiblingSessionEnds) != 2 {
		t.Fatalf("sibling ends = %d, want 2", len(cc.SiblingSessionEnds))
	}
	if cc.MeetingEnd == nil {
		t.Fatal("meeting end not resolved")
	}
}

func TestContextLookupFailureDegrades(t *testing.T) {
	g := &fakeGetter{err: errors.New("origin down")}
	r := newTestResolver(g)

	cc := r.Context(context.Background(), "laps", map[string]string{"session_key": "9158"})
	if cc.SessionEnd != nil {
		t.Error("failed lookup must leave the session end absent")
	}
}

func TestContextNoKeysNoLookups(t *testing.T) {
	g := &fakeGetter{}
	r := newTestResolver(g)

	cc := r.Context(context.Background(), "laps", map[string]string{"driver_number": "1"})
	if cc.SessionEnd != nil || len(g.calls) != 0 {
		t.Error("no session_key should mean no lookup and no end date")
	}
}

func TestContextMalformedPayload(t *testing.T) {
	g := &fakeGetter{payloads: map[string][]byte{"sessions": []byte(`{"not":"an array"}`)}}
	r := newTestResolver(g)

	cc := r.Context(context.Background(), "laps", map[string]string{"session_key": "9158"})
	if cc.SessionEnd != nil {
		t.Error("malformed lookup payload must degrade to absent")
	}
}
