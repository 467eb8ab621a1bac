package policy

import "time"

// Clock supplies the current time. The policy engine evaluates completion
// predicates against it, so tests can pin time instead of racing the wall
// clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the system wall clock in UTC.
func SystemClock() Clock { return systemClock{} }
