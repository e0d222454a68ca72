package control

import (
	"time"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
)

// Stability windows for conditional phase transitions.
const (
	holdStability     = 5 * time.Second
	rampStability     = 3 * time.Second
	holdCurveSoftCapF = 80
)

// Demand is the engine's per-tick output, before fan shaping.
type Demand struct {
	Phase      boilerassistant.BurnPhase
	FanPercent int
	DamperOpen bool
}

// Engine is the burn-phase state machine. It owns the current phase
// and every stability timer; nothing else mutates them. All waiting is
// stateful time comparison against the injected clock, re-evaluated on
// each tick, never a blocking wait.
type Engine struct {
	now   func() time.Time
	phase boilerassistant.BurnPhase

	boost    *StabilityTimer // boost window, compared against Settings.BoostSeconds
	hold     *StabilityTimer // RAMP→HOLD entry
	rampFall *StabilityTimer // HOLD→RAMP fallback
	coalBed  *StabilityTimer // COALBED entry, compared against Settings.CoalBedMinutes
}

// NewEngine builds an engine in RAMP with all timers idle. now may be
// nil (wall clock). Callers that want boot-time boost call Reset.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		now:      now,
		phase:    boilerassistant.PhaseRamp,
		boost:    NewStabilityTimer(now),
		hold:     NewStabilityTimer(now),
		rampFall: NewStabilityTimer(now),
		coalBed:  NewStabilityTimer(now),
	}
}

// Reset re-enters the engine through its initialization path: phase
// RAMP, all timers cleared, and a fresh boost window when autoBoost is
// set. Used at power-on and when clearing SAFETY, deliberately the
// same routine in both cases so an alarm recovery re-establishes the
// fire the way a cold start does.
func (e *Engine) Reset(autoBoost bool) {
	e.phase = boilerassistant.PhaseRamp
	e.hold.Cancel()
	e.rampFall.Cancel()
	e.coalBed.Cancel()
	e.boost.Cancel()
	if autoBoost {
		e.StartBoost()
	}
}

// StartBoost opens a fresh boost window. Ignored while in SAFETY.
func (e *Engine) StartBoost() {
	if e.phase == boilerassistant.PhaseSafety {
		return
	}
	e.boost.Restart()
	e.phase = boilerassistant.PhaseBoost
}

// ForceSafety latches the terminal lockout phase. Only an explicit
// Reset leaves it; the engine never enters SAFETY on its own.
func (e *Engine) ForceSafety() {
	e.phase = boilerassistant.PhaseSafety
}

// Phase returns the current burn phase.
func (e *Engine) Phase() boilerassistant.BurnPhase {
	return e.phase
}

// BoostActive reports whether a boost window is open.
func (e *Engine) BoostActive() bool {
	return e.boost.Active()
}

// BoostRemaining returns the time left in the open boost window.
func (e *Engine) BoostRemaining(cfg boilerassistant.Settings) time.Duration {
	return e.boost.Remaining(time.Duration(cfg.BoostSeconds) * time.Second)
}

// ActiveTimer reports the stability timer currently counting down, for
// display. COALBED entry takes precedence over the in-phase timers.
func (e *Engine) ActiveTimer(cfg boilerassistant.Settings) (label string, remaining time.Duration, ok bool) {
	switch {
	case e.coalBed.Active():
		return "COALBED", e.coalBed.Remaining(time.Duration(cfg.CoalBedMinutes) * time.Minute), true
	case e.hold.Active():
		return "HOLD", e.hold.Remaining(holdStability), true
	case e.rampFall.Active():
		return "RAMP", e.rampFall.Remaining(rampStability), true
	}
	return "", 0, false
}

// Tick advances the state machine once and returns the phase, the raw
// fan demand and the damper position. smoothedF is the filtered flue
// temperature; cfg must hold validated settings.
func (e *Engine) Tick(smoothedF float64, cfg boilerassistant.Settings) Demand {
	// SAFETY short-circuits everything: timers die, damper closes,
	// fan demand is zero until an external reset.
	if e.phase == boilerassistant.PhaseSafety {
		e.boost.Cancel()
		e.coalBed.Cancel()
		e.hold.Cancel()
		e.rampFall.Cancel()
		return Demand{Phase: boilerassistant.PhaseSafety}
	}

	// Boost window: full fan, damper forced open, until it expires.
	if e.boost.Active() {
		if !e.boost.HasElapsed(time.Duration(cfg.BoostSeconds) * time.Second) {
			e.phase = boilerassistant.PhaseBoost
			return Demand{Phase: boilerassistant.PhaseBoost, FanPercent: 100, DamperOpen: true}
		}
		e.boost.Cancel()
		e.phase = boilerassistant.PhaseRamp
	}

	// Coal-bed entry runs every tick and may override RAMP/HOLD, but
	// never an active boost (returned above) or SAFETY.
	if smoothedF < float64(cfg.FlueLowF) {
		e.coalBed.Start()
		if e.coalBed.HasElapsed(time.Duration(cfg.CoalBedMinutes) * time.Minute) {
			e.phase = boilerassistant.PhaseCoalBed
			e.coalBed.Cancel()
			e.hold.Cancel()
			e.rampFall.Cancel()
		}
	} else {
		e.coalBed.Cancel()
	}

	switch e.phase {
	case boilerassistant.PhaseRamp:
		// Entry to HOLD requires an unbroken stability window inside
		// the band; dipping out cancels with no partial credit.
		if smoothedF >= float64(cfg.ExhaustSetpointF-cfg.DeadbandF) {
			e.hold.Start()
			if e.hold.HasElapsed(holdStability) {
				e.phase = boilerassistant.PhaseHold
				e.hold.Cancel()
			}
		} else {
			e.hold.Cancel()
		}

	case boilerassistant.PhaseHold:
		if smoothedF < float64(cfg.ExhaustSetpointF-2*cfg.DeadbandF) {
			e.rampFall.Start()
			if e.rampFall.HasElapsed(rampStability) {
				e.phase = boilerassistant.PhaseRamp
				e.rampFall.Cancel()
				e.hold.Cancel()
			}
		} else {
			e.rampFall.Cancel()
		}

	case boilerassistant.PhaseCoalBed:
		// No stability window on the way out: recovery is immediate.
		if smoothedF > float64(cfg.ExhaustSetpointF-cfg.DeadbandF) {
			e.phase = boilerassistant.PhaseRamp
			e.hold.Cancel()
			e.rampFall.Cancel()
		}
	}

	return Demand{
		Phase:      e.phase,
		FanPercent: e.rawDemand(smoothedF, cfg),
		DamperOpen: e.phase.DamperOpen(),
	}
}

// rawDemand computes the pre-shaping fan percentage for the current phase.
func (e *Engine) rawDemand(smoothedF float64, cfg boilerassistant.Settings) int {
	switch e.phase {
	case boilerassistant.PhaseBoost, boilerassistant.PhaseRamp:
		return 100
	case boilerassistant.PhaseHold:
		return holdCurve(smoothedF, cfg)
	default:
		// COALBED, IDLE, SAFETY
		return 0
	}
}

// holdCurve shapes fan speed against how far the fire sits below
// setpoint: an idle trickle near the band, a gentle ramp through
// moderate error with a soft cap, and a steeper leg that may reach
// full speed only for large deviations.
func holdCurve(smoothedF float64, cfg boilerassistant.Settings) int {
	err := float64(cfg.ExhaustSetpointF) - smoothedF

	if err <= 5 {
		return cfg.ClampMinPercent
	}

	if err <= 25 {
		fan := cfg.ClampMinPercent + int((err-5)*2)
		if fan > holdCurveSoftCapF {
			fan = holdCurveSoftCapF
		}
		return clampInt(fan, cfg.ClampMinPercent, cfg.ClampMaxPercent)
	}

	fan := 50 + int((err-25)*2)
	if err <= 40 && fan > holdCurveSoftCapF {
		fan = holdCurveSoftCapF
	}
	return clampInt(fan, cfg.ClampMinPercent, 100)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
