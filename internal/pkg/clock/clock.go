// Package clock hides time.Now behind an interface so time-dependent logic
// (OTP expiry, cooldown windows, delivery timestamps) can be pinned in tests.
package clock

import "time"

// Clocker reports the current instant.
type Clocker interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// New returns the wall clock.
func New() System {
	return System{}
}

// Now returns time.Now in UTC.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant.
type Fixed time.Time

// Now returns the pinned instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
