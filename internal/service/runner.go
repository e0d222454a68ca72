package service

import (
	"context"
	"math"
	"time"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/control"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/repository"
)

// How often the snapshot row is rewritten between phase changes.
const persistInterval = time.Second

// RunnerService drives the control loop: tick the controller, feed the
// fan command back to the firebox, persist telemetry and log phase
// transitions.
type RunnerService struct {
	boiler     *BoilerService
	statusRepo repository.StatusRepo
	eventRepo  repository.EventRepo
	env        EnvSource
	airflow    AirflowSink

	lastPhase   boilerassistant.BurnPhase
	havePhase   bool
	lastPersist time.Time
	lastEnv     *boilerassistant.EnvReading
}

func NewRunnerService(boiler *BoilerService, statusRepo repository.StatusRepo, eventRepo repository.EventRepo, env EnvSource, airflow AirflowSink) *RunnerService {
	return &RunnerService{
		boiler:     boiler,
		statusRepo: statusRepo,
		eventRepo:  eventRepo,
		env:        env,
		airflow:    airflow,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *RunnerService) Run(ctx context.Context, tick time.Duration) {
	// Power-on behaves like a reset: boost window when configured.
	_ = s.boiler.autoBoostOnStart(ctx)

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.step(ctx, now)
		}
	}
}

func (s *RunnerService) step(ctx context.Context, now time.Time) {
	out, err := s.boiler.runTick(ctx)
	if err != nil {
		return
	}

	if s.airflow != nil {
		s.airflow.SetAirflow(out.FanPercent)
	}

	phaseChanged := s.havePhase && out.Phase != s.lastPhase
	if phaseChanged {
		_ = s.eventRepo.Append(ctx, boilerassistant.BoilerEvent{
			OccurredAt:  now.UTC(),
			Type:        "PHASE_CHANGE",
			Description: "Phase " + s.lastPhase.String() + " -> " + out.Phase.String(),
			Metadata: map[string]any{
				"from":        s.lastPhase.String(),
				"to":          out.Phase.String(),
				"fan_percent": out.FanPercent,
			},
		})
	}
	s.lastPhase = out.Phase
	s.havePhase = true

	if s.env != nil {
		r := s.env.Read()
		s.lastEnv = &r
	}

	if phaseChanged || now.Sub(s.lastPersist) >= persistInterval {
		_ = s.statusRepo.Save(ctx, s.snapshot(out, now))
		s.lastPersist = now
	}
}

// snapshot converts one controller cycle into the persisted telemetry
// row. A NaN smoothed temperature means no valid reading yet and maps
// to a null column.
func (s *RunnerService) snapshot(out control.Output, now time.Time) boilerassistant.ControlStatus {
	st := boilerassistant.ControlStatus{
		ID:             1,
		Phase:          out.Phase,
		FanPercent:     out.FanPercent,
		DamperOpen:     out.DamperOpen,
		BoostRemaining: int(out.BoostRemaining.Round(time.Second) / time.Second),
		TimerLabel:     out.TimerLabel,
		TimerRemaining: int(out.TimerRemaining.Round(time.Second) / time.Second),
		Env:            s.lastEnv,
		UpdatedAt:      now.UTC(),
	}
	if !math.IsNaN(out.SmoothedF) {
		v := out.SmoothedF
		st.ExhaustF = &v
	}
	return st
}
