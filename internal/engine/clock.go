package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// It is used to determine "today", the default reference date.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Today returns the local calendar date of the clock.
func Today(c Clock) Date {
	return DateOf(c.Now())
}
