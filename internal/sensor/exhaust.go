package sensor

import (
	"math"
	"time"
)

// Acquisition tuning. The cadence gate keeps the probe read rate fixed
// no matter how fast the control loop ticks; the spike threshold
// rejects single-read glitches while still tracking genuine transients.
const (
	ReadInterval = 500 * time.Millisecond
	SpikeLimitF  = 150.0
	MinValidF    = -100.0
	MaxValidF    = 2000.0

	smoothPrevWeight = 0.88
	smoothNewWeight  = 0.12
)

// Exhaust turns a noisy thermocouple into a validated, cadence-limited,
// exponentially smoothed flue temperature. Invalidity is in-band: NaN
// until the first accepted sample, last good value afterwards.
type Exhaust struct {
	tc  Thermocouple
	now func() time.Time

	lastAttempt time.Time
	haveAttempt bool
	cachedF     float64
	smoothedF   float64
}

// NewExhaust wraps a thermocouple. now may be nil (wall clock).
func NewExhaust(tc Thermocouple, now func() time.Time) *Exhaust {
	if now == nil {
		now = time.Now
	}
	return &Exhaust{
		tc:        tc,
		now:       now,
		cachedF:   math.NaN(),
		smoothedF: math.NaN(),
	}
}

// Sample is called once per control tick. It attempts a fresh hardware
// read at most once per ReadInterval and runs the smoothing filter on
// every call, so repeated cached reads keep converging.
func (e *Exhaust) Sample() float64 {
	t := e.now()
	if !e.haveAttempt || t.Sub(e.lastAttempt) >= ReadInterval {
		e.haveAttempt = true
		e.lastAttempt = t
		e.refresh()
	}
	return e.smooth(e.cachedF)
}

// refresh performs one validated hardware read into the cache.
func (e *Exhaust) refresh() {
	raw, err := e.tc.TemperatureF()
	if err != nil {
		return // hardware fault: keep previous cached value
	}
	if math.IsNaN(raw) || raw < MinValidF || raw > MaxValidF {
		return // physically implausible
	}
	if !math.IsNaN(e.cachedF) && math.Abs(raw-e.cachedF) > SpikeLimitF {
		return // glitch: more than the spike limit inside one cadence interval
	}
	e.cachedF = raw
}

// smooth folds a raw value into the EWMA. Initializes on the first
// valid input and freezes while the input is invalid.
func (e *Exhaust) smooth(rawF float64) float64 {
	if math.IsNaN(rawF) {
		return e.smoothedF
	}
	if math.IsNaN(e.smoothedF) {
		e.smoothedF = rawF
		return e.smoothedF
	}
	e.smoothedF = e.smoothedF*smoothPrevWeight + rawF*smoothNewWeight
	return e.smoothedF
}
