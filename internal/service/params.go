package service

import "time"

// SettingsPatch carries a partial parameter update. Nil fields are
// left untouched; present fields are clamped to command bounds.
type SettingsPatch struct {
	ExhaustSetpointF *int  `json:"exhaust_setpoint_f"`
	DeadbandF        *int  `json:"deadband_f"`
	BoostSeconds     *int  `json:"boost_seconds"`
	ClampMinPercent  *int  `json:"clamp_min_percent"`
	ClampMaxPercent  *int  `json:"clamp_max_percent"`
	DeadzoneFan      *bool `json:"deadzone_fan"`
	CoalBedMinutes   *int  `json:"coalbed_minutes"`
	FlueLowF         *int  `json:"flue_low_f"`
	FlueRecoveryF    *int  `json:"flue_recovery_f"`
	AutoBoost        *bool `json:"auto_boost"`
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "PHASE_CHANGE", "BOOST", "SAFETY", "RESET", "SETTINGS", "SENSOR"
}
