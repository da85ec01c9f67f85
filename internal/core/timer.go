package core

import "time"

// Throttle limits how often a periodic action fires, e.g. progress logging
// during a long batch. It reads the clock only when asked.
type Throttle struct {
	every time.Duration
	last  time.Time
	now   func() time.Time
}

// NewThrottle constructs a Throttle that fires at most once per interval.
// A non-positive interval defaults to one second.
func NewThrottle(every time.Duration) *Throttle {
	return NewThrottleWithClock(every, time.Now)
}

// NewThrottleWithClock is NewThrottle with an injectable clock.
func NewThrottleWithClock(every time.Duration, now func() time.Time) *Throttle {
	if every <= 0 {
		every = time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Throttle{every: every, now: now}
}

// Ready reports whether the interval has elapsed since the last time Ready
// returned true. The first call always returns true.
func (t *Throttle) Ready() bool {
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.every {
		return false
	}
	t.last = now
	return true
}
