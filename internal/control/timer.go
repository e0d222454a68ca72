package control

import "time"

// StabilityTimer measures how long a triggering condition has held
// without interruption. Start arms it on the first true evaluation,
// Cancel clears it the moment the condition breaks, and HasElapsed
// reports whether the unbroken window reached the required duration.
// One instance exists per conditional transition (HOLD entry, RAMP
// fallback, COALBED entry) plus the boost window.
type StabilityTimer struct {
	now       func() time.Time
	active    bool
	startedAt time.Time
}

// NewStabilityTimer builds a timer over the given clock. now may be
// nil (wall clock).
func NewStabilityTimer(now func() time.Time) *StabilityTimer {
	if now == nil {
		now = time.Now
	}
	return &StabilityTimer{now: now}
}

// Start arms the timer if it is not already running.
func (t *StabilityTimer) Start() {
	if t.active {
		return
	}
	t.active = true
	t.startedAt = t.now()
}

// Restart arms the timer with a fresh window even if already running.
func (t *StabilityTimer) Restart() {
	t.active = true
	t.startedAt = t.now()
}

// Cancel clears the timer. No partial credit: the next Start opens a
// brand new window.
func (t *StabilityTimer) Cancel() {
	t.active = false
}

func (t *StabilityTimer) Active() bool {
	return t.active
}

// HasElapsed reports whether an armed timer's window reached d.
func (t *StabilityTimer) HasElapsed(d time.Duration) bool {
	return t.active && t.now().Sub(t.startedAt) >= d
}

// Remaining returns the time left until the window of length d fires,
// or zero when the timer is idle or already elapsed.
func (t *StabilityTimer) Remaining(d time.Duration) time.Duration {
	if !t.active {
		return 0
	}
	left := d - t.now().Sub(t.startedAt)
	if left < 0 {
		return 0
	}
	return left
}
