// Package timer provides the one-shot timer service used by race sessions.
package timer

import "time"

// Handle is an armed one-shot timer.
type Handle interface {
	// Stop disarms the timer. It returns false if the timer already fired or
	// was stopped.
	Stop() bool
}

// Scheduler arms one-shot callbacks.
type Scheduler interface {
	ScheduleOnce(d time.Duration, fn func()) Handle
}

// Wall schedules callbacks on the wall clock.
type Wall struct{}

// ScheduleOnce runs fn in its own goroutine after d.
func (Wall) ScheduleOnce(d time.Duration, fn func()) Handle {
	return time.AfterFunc(d, fn)
}

// Stop disarms h if it is non-nil.
func Stop(h Handle) {
	if h != nil {
		h.Stop()
	}
}
