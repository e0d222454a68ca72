package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

var _ SettingsRepo = (*SettingsSQLite)(nil)

const (
	settingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO boiler_settings (id, setpoint_f, deadband_f, boost_s, clamp_min, clamp_max,
			deadzone_fan, coalbed_min, flue_low_f, flue_recovery_f, auto_boost, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			setpoint_f=excluded.setpoint_f,
			deadband_f=excluded.deadband_f,
			boost_s=excluded.boost_s,
			clamp_min=excluded.clamp_min,
			clamp_max=excluded.clamp_max,
			deadzone_fan=excluded.deadzone_fan,
			coalbed_min=excluded.coalbed_min,
			flue_low_f=excluded.flue_low_f,
			flue_recovery_f=excluded.flue_recovery_f,
			auto_boost=excluded.auto_boost,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `
		SELECT setpoint_f, deadband_f, boost_s, clamp_min, clamp_max,
			deadzone_fan, coalbed_min, flue_low_f, flue_recovery_f, auto_boost
		FROM boiler_settings WHERE id=?
	`
)

// Save writes the whole parameter row (id always 1), repairing any
// value that fell out of storage range first.
func (r *SettingsSQLite) Save(ctx context.Context, s boilerassistant.Settings) error {
	repairSettings(&s)
	_, err := r.db.ExecContext(ctx, upsertSettingsSQL,
		settingsRowID,
		s.ExhaustSetpointF,
		s.DeadbandF,
		s.BoostSeconds,
		s.ClampMinPercent,
		s.ClampMaxPercent,
		s.DeadzoneFan,
		s.CoalBedMinutes,
		s.FlueLowF,
		s.FlueRecoveryF,
		s.AutoBoost,
		time.Now().UTC(),
	)
	return err
}

// Load fetches the parameter row. A missing or corrupted row comes
// back repaired to factory defaults and is written back, so a fresh or
// damaged database self-heals on first start.
func (r *SettingsSQLite) Load(ctx context.Context) (boilerassistant.Settings, error) {
	row := r.db.QueryRowContext(ctx, selectSettingsSQL, settingsRowID)

	var s boilerassistant.Settings
	err := row.Scan(
		&s.ExhaustSetpointF,
		&s.DeadbandF,
		&s.BoostSeconds,
		&s.ClampMinPercent,
		&s.ClampMaxPercent,
		&s.DeadzoneFan,
		&s.CoalBedMinutes,
		&s.FlueLowF,
		&s.FlueRecoveryF,
		&s.AutoBoost,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s = boilerassistant.DefaultSettings()
	case err != nil:
		return boilerassistant.Settings{}, err
	}

	if repairSettings(&s) || errors.Is(err, sql.ErrNoRows) {
		if werr := r.Save(ctx, s); werr != nil {
			return boilerassistant.Settings{}, werr
		}
	}
	return s, nil
}

// repairSettings forces each parameter back into its storage range,
// falling back to the factory default when it is implausible. Reports
// whether anything was changed.
func repairSettings(s *boilerassistant.Settings) bool {
	def := boilerassistant.DefaultSettings()
	changed := false

	fix := func(v *int, lo, hi, fallback int) {
		if *v < lo || *v > hi {
			*v = fallback
			changed = true
		}
	}

	fix(&s.ExhaustSetpointF, 100, 900, def.ExhaustSetpointF)
	fix(&s.BoostSeconds, 0, 1800, def.BoostSeconds)
	fix(&s.DeadbandF, 0, 200, def.DeadbandF)
	fix(&s.ClampMinPercent, 0, 100, def.ClampMinPercent)
	fix(&s.ClampMaxPercent, 0, 100, def.ClampMaxPercent)
	fix(&s.CoalBedMinutes, 0, 720, def.CoalBedMinutes)
	fix(&s.FlueLowF, 0, 900, def.FlueLowF)
	fix(&s.FlueRecoveryF, 0, 900, s.FlueLowF+50)

	if s.ClampMinPercent > s.ClampMaxPercent {
		s.ClampMinPercent = s.ClampMaxPercent
		changed = true
	}
	if s.FlueRecoveryF < s.FlueLowF+10 {
		s.FlueRecoveryF = s.FlueLowF + 50
		changed = true
	}
	return changed
}
