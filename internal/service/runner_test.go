package service

import (
	"context"
	"math"
	"testing"
	"time"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/control"
)

type fakeAirflow struct {
	got []int
}

func (f *fakeAirflow) SetAirflow(percent int) { f.got = append(f.got, percent) }

type fakeEnv struct {
	reading boilerassistant.EnvReading
}

func (f *fakeEnv) Read() boilerassistant.EnvReading { return f.reading }

func newTestRunner(temp float64, settings boilerassistant.Settings) (*RunnerService, *BoilerService, *fakeStatusRepo, *fakeEventRepo, *fakeAirflow) {
	srepo := &fakeSettingsRepo{settings: settings}
	erepo := &fakeEventRepo{}
	strepo := &fakeStatusRepo{}
	airflow := &fakeAirflow{}
	env := &fakeEnv{reading: boilerassistant.EnvReading{TempF: 71.5, Humidity: 42, PressureH: 1011, OK: true}}

	boiler := NewBoilerService(control.NewController(stubTemp(temp), nil), srepo, erepo)
	runner := NewRunnerService(boiler, strepo, erepo, env, airflow)
	return runner, boiler, strepo, erepo, airflow
}

func TestRunner_Step_PersistsSnapshotAndFeedsAirflow(t *testing.T) {
	runner, _, strepo, _, airflow := newTestRunner(500, quietSettings())

	now := time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)
	runner.step(context.Background(), now)

	if len(strepo.saved) != 1 {
		t.Fatalf("expected 1 snapshot write, got %d", len(strepo.saved))
	}
	st := strepo.saved[0]
	if st.Phase != boilerassistant.PhaseRamp {
		t.Errorf("phase = %v, want RAMP", st.Phase)
	}
	if st.ExhaustF == nil || *st.ExhaustF != 500 {
		t.Errorf("exhaust = %v, want 500", st.ExhaustF)
	}
	if !st.DamperOpen {
		t.Errorf("damper should be open in RAMP")
	}
	if st.Env == nil || st.Env.TempF != 71.5 {
		t.Errorf("env reading missing from snapshot: %+v", st.Env)
	}
	if !st.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", st.UpdatedAt, now)
	}

	if len(airflow.got) != 1 || airflow.got[0] != st.FanPercent {
		t.Errorf("airflow feedback = %v, want [%d]", airflow.got, st.FanPercent)
	}
}

func TestRunner_Step_PhaseChangeEventAndImmediatePersist(t *testing.T) {
	runner, boiler, strepo, erepo, _ := newTestRunner(500, quietSettings())

	t0 := time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)
	runner.step(context.Background(), t0)
	if len(erepo.appended) != 0 {
		t.Fatalf("no event expected on first tick, got %#v", erepo.appended)
	}

	boiler.ctrl.Engine().ForceSafety()

	// well inside the persist interval; the phase change forces a write
	runner.step(context.Background(), t0.Add(10*time.Millisecond))

	if len(erepo.appended) != 1 || erepo.appended[0].Type != "PHASE_CHANGE" {
		t.Fatalf("expected one PHASE_CHANGE event, got %#v", erepo.appended)
	}
	meta := erepo.appended[0].Metadata.(map[string]any)
	if meta["from"] != "RAMP" || meta["to"] != "SAFETY" {
		t.Fatalf("unexpected transition metadata: %#v", meta)
	}

	if len(strepo.saved) != 2 {
		t.Fatalf("expected 2 snapshot writes, got %d", len(strepo.saved))
	}
	last := strepo.saved[1]
	if last.Phase != boilerassistant.PhaseSafety || last.FanPercent != 0 || last.DamperOpen {
		t.Fatalf("safety snapshot wrong: %+v", last)
	}
}

func TestRunner_Step_PersistCadence(t *testing.T) {
	runner, _, strepo, _, _ := newTestRunner(500, quietSettings())

	t0 := time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)
	runner.step(context.Background(), t0)
	runner.step(context.Background(), t0.Add(500*time.Millisecond))
	runner.step(context.Background(), t0.Add(1100*time.Millisecond))

	if len(strepo.saved) != 2 {
		t.Fatalf("expected writes at t0 and t0+1.1s only, got %d", len(strepo.saved))
	}
}

func TestRunner_Step_NoReadingMeansNullExhaust(t *testing.T) {
	runner, _, strepo, _, _ := newTestRunner(math.NaN(), quietSettings())

	runner.step(context.Background(), time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC))

	if len(strepo.saved) != 1 {
		t.Fatalf("expected 1 snapshot write, got %d", len(strepo.saved))
	}
	if strepo.saved[0].ExhaustF != nil {
		t.Fatalf("exhaust should be nil without a valid reading, got %v", *strepo.saved[0].ExhaustF)
	}
}

func TestRunner_AutoBoostOnStart(t *testing.T) {
	cfg := quietSettings()
	cfg.AutoBoost = true
	_, boiler, _, _, _ := newTestRunner(500, cfg)

	if err := boiler.autoBoostOnStart(context.Background()); err != nil {
		t.Fatalf("autoBoostOnStart: %v", err)
	}
	if boiler.ctrl.Engine().Phase() != boilerassistant.PhaseBoost {
		t.Fatalf("expected BOOST after start with auto-boost on")
	}
}

func TestRunner_Run_StopsOnCancel(t *testing.T) {
	runner, _, _, _, _ := newTestRunner(500, quietSettings())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Run(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}
