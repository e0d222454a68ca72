package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/control"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/repository"
)

// Command bounds. Narrower than the storage ranges the settings store
// repairs against: operator input is clamped into the range that is
// sensible to ask for, not merely the range that loads.
const (
	cmdSetpointMinF = 200
	cmdSetpointMaxF = 900
	cmdBoostMinS    = 5
	cmdBoostMaxS    = 300
	cmdDeadbandMinF = 1
	cmdDeadbandMaxF = 100
	cmdClampMinPct  = 0
	cmdClampMaxPct  = 100
	cmdCoalBedMinM  = 5
	cmdCoalBedMaxM  = 60
	cmdFlueLowMinF  = 200
	cmdFlueLowMaxF  = 500
	cmdFlueRecGapF  = 10
	cmdFlueRecMaxF  = 600
)

// ErrSafetyLatched is returned when a command cannot run while the
// safety latch is set.
var ErrSafetyLatched = errors.New("safety latched: clear it first")

// BoilerService owns the controller and the active parameter set. All
// access, including the runner's tick, goes through its mutex.
type BoilerService struct {
	mu           sync.Mutex
	ctrl         *control.Controller
	settingsRepo repository.SettingsRepo
	eventRepo    repository.EventRepo

	settings boilerassistant.Settings
	loaded   bool
}

func NewBoilerService(ctrl *control.Controller, settingsRepo repository.SettingsRepo, eventRepo repository.EventRepo) *BoilerService {
	return &BoilerService{
		ctrl:         ctrl,
		settingsRepo: settingsRepo,
		eventRepo:    eventRepo,
	}
}

// StartBoost opens a full-power boost window. Ignored with an error
// while the safety latch is set.
func (s *BoilerService) StartBoost(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.ensureSettingsLocked(ctx)
	if err != nil {
		return err
	}
	if s.ctrl.Engine().Phase() == boilerassistant.PhaseSafety {
		return ErrSafetyLatched
	}
	s.ctrl.Engine().StartBoost()

	return s.eventRepo.Append(ctx, boilerassistant.BoilerEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        "BOOST",
		Description: fmt.Sprintf("Boost window opened for %ds", cfg.BoostSeconds),
		Metadata:    map[string]any{"boost_seconds": cfg.BoostSeconds},
	})
}

// ForceSafety latches the safety state: fan off, damper closed, all
// timers cancelled. The latch holds until ClearSafety.
func (s *BoilerService) ForceSafety(ctx context.Context, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctrl.Engine().ForceSafety()

	if reason == "" {
		reason = "operator request"
	}
	return s.eventRepo.Append(ctx, boilerassistant.BoilerEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        "SAFETY",
		Description: "Safety latch set: " + reason,
		Metadata:    map[string]any{"reason": reason},
	})
}

// ClearSafety releases the latch and restarts control through the same
// init path as power-on: back to RAMP, with a boost window when
// AutoBoost is on. Also acts as a plain restart when not latched.
func (s *BoilerService) ClearSafety(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.ensureSettingsLocked(ctx)
	if err != nil {
		return err
	}
	wasLatched := s.ctrl.Engine().Phase() == boilerassistant.PhaseSafety
	s.ctrl.Engine().Reset(cfg.AutoBoost)

	return s.eventRepo.Append(ctx, boilerassistant.BoilerEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        "RESET",
		Description: "Control restarted",
		Metadata: map[string]any{
			"was_latched": wasLatched,
			"auto_boost":  cfg.AutoBoost,
		},
	})
}

// GetSettings returns the active parameter set, loading it from the
// store on first use.
func (s *BoilerService) GetSettings(ctx context.Context) (boilerassistant.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureSettingsLocked(ctx)
}

// UpdateSettings applies a partial update. Each supplied value is
// clamped into command bounds, the whole row is persisted, and the
// running controller picks the change up on its next tick.
func (s *BoilerService) UpdateSettings(ctx context.Context, p SettingsPatch) (boilerassistant.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.ensureSettingsLocked(ctx)
	if err != nil {
		return boilerassistant.Settings{}, err
	}

	next := cur
	changedFields := map[string]any{}

	setInt := func(dst *int, src *int, lo, hi int, name string) {
		if src == nil {
			return
		}
		*dst = clampRange(*src, lo, hi)
		changedFields[name] = *dst
	}
	setBool := func(dst *bool, src *bool, name string) {
		if src == nil {
			return
		}
		*dst = *src
		changedFields[name] = *dst
	}

	setInt(&next.ExhaustSetpointF, p.ExhaustSetpointF, cmdSetpointMinF, cmdSetpointMaxF, "exhaust_setpoint_f")
	setInt(&next.DeadbandF, p.DeadbandF, cmdDeadbandMinF, cmdDeadbandMaxF, "deadband_f")
	setInt(&next.BoostSeconds, p.BoostSeconds, cmdBoostMinS, cmdBoostMaxS, "boost_seconds")
	setInt(&next.ClampMinPercent, p.ClampMinPercent, cmdClampMinPct, cmdClampMaxPct, "clamp_min_percent")
	setInt(&next.ClampMaxPercent, p.ClampMaxPercent, cmdClampMinPct, cmdClampMaxPct, "clamp_max_percent")
	setBool(&next.DeadzoneFan, p.DeadzoneFan, "deadzone_fan")
	setInt(&next.CoalBedMinutes, p.CoalBedMinutes, cmdCoalBedMinM, cmdCoalBedMaxM, "coalbed_minutes")
	setInt(&next.FlueLowF, p.FlueLowF, cmdFlueLowMinF, cmdFlueLowMaxF, "flue_low_f")
	setInt(&next.FlueRecoveryF, p.FlueRecoveryF, cmdFlueLowMinF+cmdFlueRecGapF, cmdFlueRecMaxF, "flue_recovery_f")
	setBool(&next.AutoBoost, p.AutoBoost, "auto_boost")

	// Cross-field invariants hold regardless of which side moved.
	if next.ClampMinPercent > next.ClampMaxPercent {
		next.ClampMinPercent = next.ClampMaxPercent
		changedFields["clamp_min_percent"] = next.ClampMinPercent
	}
	if next.FlueRecoveryF < next.FlueLowF+cmdFlueRecGapF {
		next.FlueRecoveryF = next.FlueLowF + cmdFlueRecGapF
		changedFields["flue_recovery_f"] = next.FlueRecoveryF
	}

	if len(changedFields) == 0 {
		return cur, nil
	}

	if err := s.settingsRepo.Save(ctx, next); err != nil {
		return boilerassistant.Settings{}, err
	}
	s.settings = next

	if err := s.eventRepo.Append(ctx, boilerassistant.BoilerEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        "SETTINGS",
		Description: "Parameters updated",
		Metadata:    changedFields,
	}); err != nil {
		return boilerassistant.Settings{}, err
	}
	return next, nil
}

// runTick executes one control cycle under the command mutex, so a
// settings change and a tick never interleave.
func (s *BoilerService) runTick(ctx context.Context) (control.Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.ensureSettingsLocked(ctx)
	if err != nil {
		return control.Output{}, err
	}
	return s.ctrl.Tick(cfg), nil
}

// autoBoostOnStart arms the power-on boost window when configured.
// Called once by the runner before the first tick.
func (s *BoilerService) autoBoostOnStart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.ensureSettingsLocked(ctx)
	if err != nil {
		return err
	}
	if cfg.AutoBoost {
		s.ctrl.Engine().StartBoost()
	}
	return nil
}

func (s *BoilerService) ensureSettingsLocked(ctx context.Context) (boilerassistant.Settings, error) {
	if s.loaded {
		return s.settings, nil
	}
	cfg, err := s.settingsRepo.Load(ctx)
	if err != nil {
		return boilerassistant.Settings{}, err
	}
	s.settings = cfg
	s.loaded = true
	return cfg, nil
}

func clampRange(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
