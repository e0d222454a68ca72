package boilerassistant

import (
	"encoding/json"
	"fmt"
	"time"
)

// BurnPhase is the controller's high-level combustion-management mode.
// Exactly one phase is active at any time; the burn engine is its only
// writer, everything else (fan shaping, telemetry, persistence) reads it.
type BurnPhase int

const (
	PhaseRamp BurnPhase = iota
	PhaseHold
	PhaseIdle
	PhaseCoalBed
	PhaseBoost
	PhaseSafety
)

var phaseNames = map[BurnPhase]string{
	PhaseRamp:    "RAMP",
	PhaseHold:    "HOLD",
	PhaseIdle:    "IDLE",
	PhaseCoalBed: "COALBED",
	PhaseBoost:   "BOOST",
	PhaseSafety:  "SAFETY",
}

func (p BurnPhase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return fmt.Sprintf("BurnPhase(%d)", int(p))
}

// DamperOpen is the damper policy: the damper is closed only while
// resting (IDLE) or locked out (SAFETY), open in every burning phase.
func (p BurnPhase) DamperOpen() bool {
	return p != PhaseIdle && p != PhaseSafety
}

func (p BurnPhase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *BurnPhase) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	phase, err := ParseBurnPhase(s)
	if err != nil {
		return err
	}
	*p = phase
	return nil
}

// ParseBurnPhase maps the canonical upper-case name back to a phase.
func ParseBurnPhase(s string) (BurnPhase, error) {
	for p, name := range phaseNames {
		if name == s {
			return p, nil
		}
	}
	return PhaseRamp, fmt.Errorf("unknown burn phase %q", s)
}

// Settings are the tunable combustion parameters. Temperatures are °F,
// fan bounds are percentages. A Settings value is immutable during a
// control tick; only explicit set commands mutate and persist it.
type Settings struct {
	ExhaustSetpointF int  `json:"exhaust_setpoint_f"`
	DeadbandF        int  `json:"deadband_f"`
	BoostSeconds     int  `json:"boost_seconds"`
	ClampMinPercent  int  `json:"clamp_min_percent"`
	ClampMaxPercent  int  `json:"clamp_max_percent"`
	DeadzoneFan      bool `json:"deadzone_fan"` // true: fan never off; false: hysteresis, fan may stop
	CoalBedMinutes   int  `json:"coalbed_minutes"`
	FlueLowF         int  `json:"flue_low_f"`
	FlueRecoveryF    int  `json:"flue_recovery_f"` // must stay >= FlueLowF+10
	AutoBoost        bool `json:"auto_boost"`      // open a boost window on startup/reset
}

// DefaultSettings mirrors the factory parameters the settings store
// falls back to when a persisted value fails validation.
func DefaultSettings() Settings {
	return Settings{
		ExhaustSetpointF: 350,
		DeadbandF:        25,
		BoostSeconds:     30,
		ClampMinPercent:  10,
		ClampMaxPercent:  100,
		DeadzoneFan:      false,
		CoalBedMinutes:   30,
		FlueLowF:         250,
		FlueRecoveryF:    300,
		AutoBoost:        true,
	}
}

// EnvReading is the optional environmental sensor snapshot. Display
// telemetry only; no control decision consumes it.
type EnvReading struct {
	TempF     float64 `json:"temp_f"`
	Humidity  float64 `json:"humidity_pct"`
	PressureH float64 `json:"pressure_hpa"`
	OK        bool    `json:"ok"`
}

// ControlStatus is the per-tick telemetry snapshot of the controller.
// ExhaustF is nil while the sensor has produced no valid reading yet.
type ControlStatus struct {
	ID             int         `json:"id"`
	Phase          BurnPhase   `json:"phase"`
	ExhaustF       *float64    `json:"exhaust_f"`
	FanPercent     int         `json:"fan_percent"`
	DamperOpen     bool        `json:"damper_open"`
	BoostRemaining int         `json:"boost_remaining_s"`          // seconds, 0 when no boost window
	TimerLabel     string      `json:"timer_label,omitempty"`      // active stability timer, if any
	TimerRemaining int         `json:"timer_remaining_s"`          // seconds until the active timer fires
	Env            *EnvReading `json:"env,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// BoilerEvent is a single log entry.
type BoilerEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // PHASE_CHANGE | BOOST | SAFETY | RESET | SETTINGS | SENSOR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don't expose hash
}
