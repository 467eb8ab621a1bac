// Package policy decides how long a response may be cached and whether it
// is permanently frozen. Entity types are grouped into cache levels; each
// level has a short TTL while the underlying data can still change and a
// long one once the relevant domain event (season over, meeting over,
// session over) has passed.
package policy

import (
	"time"

	"github.com/trackside/pitwall/pkg/models"
)

// Level is a cache policy tier.
type Level string

const (
	// LevelSeasonal covers yearly listings. Completed seasons keep a long
	// TTL but are never marked permanent: a past season's listing can
	// still gain entries (a provisional fixture added retroactively).
	LevelSeasonal Level = "seasonal"
	// LevelMeeting covers per-meeting session listings.
	LevelMeeting Level = "meeting"
	// LevelSession covers per-session rosters.
	LevelSession Level = "session"
	// LevelImmutable covers session-outcome data that is append-only once
	// the session completion predicate fires. Only this level produces
	// permanent cache entries.
	LevelImmutable Level = "immutable"
	// LevelDefault applies to unknown entity types.
	LevelDefault Level = "default"
)

const (
	finalizedTTL = 365 * 24 * time.Hour
	defaultTTL   = 5 * time.Minute

	meetingGrace = 6 * time.Hour
	sessionGrace = 3 * time.Hour
)

// levelSpec holds the per-level knobs that don't vary by entity type.
type levelSpec struct {
	localTTL   time.Duration
	useLocal   bool
	useDurable bool
	canBePerm  bool
}

var levels = map[Level]levelSpec{
	LevelSeasonal:  {localTTL: 4 * time.Hour, useLocal: true, useDurable: true},
	LevelMeeting:   {localTTL: 2 * time.Hour, useLocal: true, useDurable: true},
	LevelSession:   {localTTL: time.Hour, useLocal: true, useDurable: true},
	LevelImmutable: {localTTL: 24 * time.Hour, useLocal: true, useDurable: true, canBePerm: true},
	LevelDefault:   {localTTL: defaultTTL, useLocal: true, useDurable: true},
}

// entitySpec assigns an entity type to a level and sets its still-mutable
// TTL tier. The finalized tier is one year for every level.
type entitySpec struct {
	level      Level
	mutableTTL time.Duration
}

var entities = map[string]entitySpec{
	"meetings": {LevelSeasonal, 24 * time.Hour},

	"sessions": {LevelMeeting, time.Hour},

	"drivers": {LevelSession, time.Hour},

	"laps":           {LevelImmutable, 2 * time.Minute},
	"stints":         {LevelImmutable, 2 * time.Minute},
	"session_result": {LevelImmutable, 5 * time.Minute},
	"starting_grid":  {LevelImmutable, 5 * time.Minute},
	"race_control":   {LevelImmutable, time.Minute},
	"pit":            {LevelImmutable, time.Minute},
	"position":       {LevelImmutable, 30 * time.Second},
	"intervals":      {LevelImmutable, 30 * time.Second},
	"weather":        {LevelImmutable, 5 * time.Minute},
	"team_radio":     {LevelImmutable, 5 * time.Minute},
}

// Decision is the resolved policy for one request.
type Decision struct {
	Level      Level
	TTL        time.Duration
	LocalTTL   time.Duration
	Permanent  bool
	UseLocal   bool
	UseDurable bool
}

// Engine resolves cache decisions against an injected clock.
type Engine struct {
	clock Clock
}

// New creates an Engine. A nil clock falls back to the system clock.
func New(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	return &Engine{clock: clock}
}

// Resolve maps an entity type and its completion context to a full cache
// decision: durable TTL, local overlay TTL, layer enablement, permanence.
func (e *Engine) Resolve(entityType string, cc models.CompletionContext) Decision {
	spec, ok := entities[entityType]
	if !ok {
		ls := levels[LevelDefault]
		return Decision{
			Level:      LevelDefault,
			TTL:        defaultTTL,
			LocalTTL:   ls.localTTL,
			UseLocal:   ls.useLocal,
			UseDurable: ls.useDurable,
		}
	}

	ls := levels[spec.level]
	d := Decision{
		Level:      spec.level,
		TTL:        spec.mutableTTL,
		LocalTTL:   ls.localTTL,
		UseLocal:   ls.useLocal,
		UseDurable: ls.useDurable,
	}
	if e.finalized(spec.level, cc) {
		d.TTL = finalizedTTL
		d.Permanent = ls.canBePerm
	}
	return d
}

// TTL returns the durable-store TTL for an entity type given its context.
func (e *Engine) TTL(entityType string, cc models.CompletionContext) time.Duration {
	return e.Resolve(entityType, cc).TTL
}

// Permanent reports whether a write for this entity type should produce a
// permanent entry. Only immutable-level data with a completed session
// qualifies; coarser levels stay sweepable even when finalized.
func (e *Engine) Permanent(entityType string, cc models.CompletionContext) bool {
	return e.Resolve(entityType, cc).Permanent
}

// Level returns the cache level an entity type belongs to.
func (e *Engine) Level(entityType string) Level {
	if spec, ok := entities[entityType]; ok {
		return spec.level
	}
	return LevelDefault
}

// EntityTypes lists every entity type with an explicit policy assignment.
func EntityTypes() []string {
	out := make([]string, 0, len(entities))
	for name := range entities {
		out = append(out, name)
	}
	return out
}

// finalized evaluates the completion predicate appropriate for the level.
func (e *Engine) finalized(level Level, cc models.CompletionContext) bool {
	switch level {
	case LevelSeasonal:
		return e.seasonCompleted(cc.Year)
	case LevelMeeting:
		return e.meetingCompleted(cc)
	case LevelSession, LevelImmutable:
		return e.sessionCompleted(cc.SessionEnd)
	default:
		return false
	}
}

// seasonCompleted uses calendar-year granularity: a season is over once the
// year is strictly in the past.
func (e *Engine) seasonCompleted(year int) bool {
	return year > 0 && year < e.clock.Now().Year()
}

// meetingCompleted reports whether the meeting's last known session ended
// more than six hours ago. Sibling session end times take precedence over
// the meeting's own end date when supplied.
func (e *Engine) meetingCompleted(cc models.CompletionContext) bool {
	var latest *time.Time
	for i := range cc.SiblingSessionEnds {
		end := cc.SiblingSessionEnds[i]
		if latest == nil || end.After(*latest) {
			latest = &end
		}
	}
	if latest == nil {
		latest = cc.MeetingEnd
	}
	if latest == nil {
		return false
	}
	return e.clock.Now().Sub(*latest) > meetingGrace
}

// sessionCompleted reports whether the session ended more than three hours
// ago. No end date means the session may still be live.
func (e *Engine) sessionCompleted(end *time.Time) bool {
	if end == nil {
		return false
	}
	return e.clock.Now().Sub(*end) > sessionGrace
}
