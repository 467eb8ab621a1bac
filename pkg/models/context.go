package models

import "time"

// CompletionContext carries the domain signals the cache policy needs to
// decide whether the data behind a request can still change. It is built
// fresh per request from auxiliary lookups and never persisted. Absent
// fields mean the corresponding state is unknown, which the policy treats
// as "not completed".
type CompletionContext struct {
	Year               int
	SessionEnd         *time.Time
	MeetingEnd         *time.Time
	SiblingSessionEnds []time.Time
}
