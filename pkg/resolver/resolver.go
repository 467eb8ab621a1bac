// Package resolver builds the completion context the cache policy needs.
// End dates for sessions and meetings come from auxiliary lookups routed
// through the cache itself, so resolving policy for hot entities stays
// cheap. Any lookup failure degrades to an absent signal, which the policy
// reads as "not completed".
package resolver

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/trackside/pitwall/pkg/models"
	"github.com/trackside/pitwall/pkg/policy"
)

// Getter serves cached reads; in production it is the orchestrator.
type Getter interface {
	Get(ctx context.Context, entityType string, params map[string]string, cc models.CompletionContext) (models.CacheResult, error)
}

// Resolver derives a CompletionContext per request.
type Resolver struct {
	cache  Getter
	policy *policy.Engine
}

// New creates a Resolver.
func New(cache Getter, pol *policy.Engine) *Resolver {
	return &Resolver{cache: cache, policy: pol}
}

// Context builds the completion context for one request. Auxiliary lookups
// only carry the year, never end dates, so they cannot recurse.
func (r *Resolver) Context(ctx context.Context, entityType string, params map[string]string) models.CompletionContext {
	var cc models.CompletionContext
	if y, err := strconv.Atoi(params["year"]); err == nil {
		cc.Year = y
	}

	switch r.policy.Level(entityType) {
	case policy.LevelMeeting:
		mk := params["meeting_key"]
		if mk == "" {
			return cc
		}
		cc.SiblingSessionEnds = r.sessionEnds(ctx, cc.Year, map[string]string{"meeting_key": mk})
		cc.MeetingEnd = r.meetingEnd(ctx, cc.Year, mk)
	case policy.LevelSession, policy.LevelImmutable:
		sk := params["session_key"]
		if sk == "" {
			return cc
		}
		ends := r.sessionEnds(ctx, cc.Year, map[string]string{"session_key": sk})
		if len(ends) > 0 {
			cc.SessionEnd = &ends[0]
		}
	}
	return cc
}

// endDated is the slice of upstream fields we care about.
type endDated struct {
	DateEnd string `json:"date_end"`
}

// sessionEnds looks up matching sessions and returns their end times.
func (r *Resolver) sessionEnds(ctx context.Context, year int, params map[string]string) []time.Time {
	res, err := r.cache.Get(ctx, "sessions", params, models.CompletionContext{Year: year})
	if err != nil {
		log.Printf("session lookup %v: %v", params, err)
		return nil
	}
	return parseEnds(res.Payload)
}

// meetingEnd looks up the meeting's own end date.
func (r *Resolver) meetingEnd(ctx context.Context, year int, meetingKey string) *time.Time {
	res, err := r.cache.Get(ctx, "meetings", map[string]string{"meeting_key": meetingKey}, models.CompletionContext{Year: year})
	if err != nil {
		log.Printf("meeting lookup %s: %v", meetingKey, err)
		return nil
	}
	ends := parseEnds(res.Payload)
	if len(ends) == 0 {
		return nil
	}
	return &ends[0]
}

func parseEnds(payload []byte) []time.Time {
	var rows []endDated
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil
	}
	var out []time.Time
	for _, row := range rows {
		if row.DateEnd == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, row.DateEnd); err == nil {
			out = append(out, t.UTC())
		}
	}
	return out
}
