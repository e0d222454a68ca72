package control

import (
	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
)

// Hysteresis width above clamp-min before the fan switches on.
const hysteresisBandPercent = 10

// Shaper turns the engine's raw fan demand into the percentage the
// actuation hardware may act on: trailing smoothing against chatter,
// clamping, and either a clamp-min floor (constant-airflow mode) or
// on/off hysteresis (true deadzone mode). BOOST and SAFETY bypass all
// of it. The shaper owns its memory exclusively.
type Shaper struct {
	lastPercent int
	fanOn       bool
	prevPhase   boilerassistant.BurnPhase
}

// NewShaper starts quiescent in IDLE.
func NewShaper() *Shaper {
	return &Shaper{prevPhase: boilerassistant.PhaseIdle}
}

// Apply is called once per tick after the engine. rawPercent is the
// engine's demand for phase.
func (s *Shaper) Apply(rawPercent int, phase boilerassistant.BurnPhase, cfg boilerassistant.Settings) int {
	s.handlePhaseChange(phase)

	// SAFETY overrides everything: fan off, memory cleared.
	if phase == boilerassistant.PhaseSafety {
		s.lastPercent = 0
		s.fanOn = false
		return 0
	}

	// BOOST overrides everything else: full fan, unshaped.
	if phase == boilerassistant.PhaseBoost {
		s.lastPercent = 100
		s.fanOn = true
		return 100
	}

	// Trailing 3:1 filter toward the previous applied value. Slower
	// than the temperature filter on purpose: this one exists to stop
	// audible fan-speed chatter.
	fan := (s.lastPercent*3 + rawPercent) / 4
	s.lastPercent = fan

	if fan > cfg.ClampMaxPercent {
		fan = cfg.ClampMaxPercent
	}

	if cfg.DeadzoneFan {
		// Constant-airflow mode: the fan never stops.
		if fan < cfg.ClampMinPercent {
			fan = cfg.ClampMinPercent
		}
		return fan
	}

	// True deadzone: the fan may switch fully off, with a band between
	// the on and off thresholds so it does not cycle at the boundary.
	onThreshold := cfg.ClampMinPercent + hysteresisBandPercent
	offThreshold := cfg.ClampMinPercent

	if !s.fanOn && fan > onThreshold {
		s.fanOn = true
	}
	if s.fanOn && fan < offThreshold {
		s.fanOn = false
	}
	if !s.fanOn {
		return 0
	}
	return fan
}

// handlePhaseChange clears smoothing and hysteresis memory when the
// phase transitions into BOOST, IDLE or SAFETY, so stale state cannot
// leak across phase boundaries.
func (s *Shaper) handlePhaseChange(phase boilerassistant.BurnPhase) {
	if phase == s.prevPhase {
		return
	}
	switch phase {
	case boilerassistant.PhaseBoost, boilerassistant.PhaseIdle, boilerassistant.PhaseSafety:
		s.lastPercent = 0
		s.fanOn = false
	}
	s.prevPhase = phase
}
