package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// The calculator never reads it; callers turn it into a reference date with Today.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// Today returns the local calendar day of the clock.
// Birthdays follow the local calendar, not UTC.
func Today(c Clock) CalendarDate {
	return DateOf(c.Now())
}
