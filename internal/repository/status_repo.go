package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
)

type StatusSQLite struct {
	db *sql.DB
}

func NewStatusSQLite(db *sql.DB) *StatusSQLite {
	return &StatusSQLite{db: db}
}

var _ StatusRepo = (*StatusSQLite)(nil)

const (
	statusRowID = 1

	upsertStatusSQL = `
		INSERT INTO boiler_status (id, phase, exhaust_f, fan_percent, damper_open,
			boost_remaining_s, timer_label, timer_remaining_s, env, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase=excluded.phase,
			exhaust_f=excluded.exhaust_f,
			fan_percent=excluded.fan_percent,
			damper_open=excluded.damper_open,
			boost_remaining_s=excluded.boost_remaining_s,
			timer_label=excluded.timer_label,
			timer_remaining_s=excluded.timer_remaining_s,
			env=excluded.env,
			updated_at=excluded.updated_at
	`

	selectStatusSQL = `
		SELECT id, phase, exhaust_f, fan_percent, damper_open,
			boost_remaining_s, timer_label, timer_remaining_s, env, updated_at
		FROM boiler_status WHERE id=?
	`
)

// Save upserts the telemetry snapshot row (id always 1).
func (r *StatusSQLite) Save(ctx context.Context, s boilerassistant.ControlStatus) error {
	var envJSON sql.NullString
	if s.Env != nil {
		b, err := json.Marshal(s.Env)
		if err != nil {
			return err
		}
		envJSON = sql.NullString{String: string(b), Valid: true}
	}

	var exhaust sql.NullFloat64
	if s.ExhaustF != nil {
		exhaust = sql.NullFloat64{Float64: *s.ExhaustF, Valid: true}
	}

	tsUTC := s.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertStatusSQL,
		statusRowID,
		s.Phase.String(),
		exhaust,
		s.FanPercent,
		s.DamperOpen,
		s.BoostRemaining,
		s.TimerLabel,
		s.TimerRemaining,
		envJSON,
		tsUTC,
	)
	return err
}

// Load fetches the snapshot row. A missing row returns a zero status.
func (r *StatusSQLite) Load(ctx context.Context) (boilerassistant.ControlStatus, error) {
	row := r.db.QueryRowContext(ctx, selectStatusSQL, statusRowID)

	var (
		s        boilerassistant.ControlStatus
		phaseStr string
		exhaust  sql.NullFloat64
		envJSON  sql.NullString
	)
	if err := row.Scan(
		&s.ID,
		&phaseStr,
		&exhaust,
		&s.FanPercent,
		&s.DamperOpen,
		&s.BoostRemaining,
		&s.TimerLabel,
		&s.TimerRemaining,
		&envJSON,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return boilerassistant.ControlStatus{}, nil // no snapshot yet
		}
		return boilerassistant.ControlStatus{}, err
	}

	phase, err := boilerassistant.ParseBurnPhase(phaseStr)
	if err != nil {
		return boilerassistant.ControlStatus{}, err
	}
	s.Phase = phase

	if exhaust.Valid {
		v := exhaust.Float64
		s.ExhaustF = &v
	}
	if envJSON.Valid && envJSON.String != "" {
		var env boilerassistant.EnvReading
		if err := json.Unmarshal([]byte(envJSON.String), &env); err == nil {
			s.Env = &env
		}
	}
	s.UpdatedAt = s.UpdatedAt.UTC()

	return s, nil
}
