// Package clock abstracts wall-clock time and timers.
//
// Toast countdowns, batch flush intervals and realtime reconnect backoff all
// schedule work through a Clock so tests can drive them with a manual clock
// (see testutil.FakeClock) instead of sleeping.
package clock

import "time"

// Clock provides the current time and one-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. Returns false if the timer
	// already fired or was already stopped.
	Stop() bool
}

// Real is the Clock backed by package time.
type Real struct{}

// New returns the system clock.
func New() Real {
	return Real{}
}

// Now returns time.Now().
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f on its own goroutine after d.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
