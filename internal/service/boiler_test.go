package service

import (
	"context"
	"errors"
	"testing"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/control"
)

// fakeSettingsRepo satisfies repository.SettingsRepo.
type fakeSettingsRepo struct {
	settings  boilerassistant.Settings
	loadErr   error
	saveErr   error
	loadCalls int
	saved     []boilerassistant.Settings
}

func (f *fakeSettingsRepo) Load(ctx context.Context) (boilerassistant.Settings, error) {
	f.loadCalls++
	return f.settings, f.loadErr
}

func (f *fakeSettingsRepo) Save(ctx context.Context, s boilerassistant.Settings) error {
	f.saved = append(f.saved, s)
	return f.saveErr
}

// stubTemp returns itself as the smoothed flue temperature.
type stubTemp float64

func (s stubTemp) Sample() float64 { return float64(s) }

func newTestBoiler(settings boilerassistant.Settings) (*BoilerService, *fakeSettingsRepo, *fakeEventRepo) {
	srepo := &fakeSettingsRepo{settings: settings}
	erepo := &fakeEventRepo{}
	ctrl := control.NewController(stubTemp(300), nil)
	return NewBoilerService(ctrl, srepo, erepo), srepo, erepo
}

func quietSettings() boilerassistant.Settings {
	s := boilerassistant.DefaultSettings()
	s.AutoBoost = false
	return s
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestBoilerService_StartBoost(t *testing.T) {
	svc, _, erepo := newTestBoiler(quietSettings())

	if err := svc.StartBoost(context.Background()); err != nil {
		t.Fatalf("StartBoost: %v", err)
	}
	if !svc.ctrl.Engine().BoostActive() {
		t.Fatalf("expected boost window to be armed")
	}
	if len(erepo.appended) != 1 || erepo.appended[0].Type != "BOOST" {
		t.Fatalf("expected one BOOST event, got %#v", erepo.appended)
	}
}

func TestBoilerService_StartBoost_WhileLatched(t *testing.T) {
	svc, _, erepo := newTestBoiler(quietSettings())
	svc.ctrl.Engine().ForceSafety()

	err := svc.StartBoost(context.Background())
	if !errors.Is(err, ErrSafetyLatched) {
		t.Fatalf("expected ErrSafetyLatched, got %v", err)
	}
	if len(erepo.appended) != 0 {
		t.Fatalf("no event expected on refused boost, got %#v", erepo.appended)
	}
}

func TestBoilerService_ForceSafety(t *testing.T) {
	svc, _, erepo := newTestBoiler(quietSettings())

	if err := svc.ForceSafety(context.Background(), ""); err != nil {
		t.Fatalf("ForceSafety: %v", err)
	}
	if got := svc.ctrl.Engine().Phase(); got != boilerassistant.PhaseSafety {
		t.Fatalf("phase = %v, want SAFETY", got)
	}
	if len(erepo.appended) != 1 || erepo.appended[0].Type != "SAFETY" {
		t.Fatalf("expected one SAFETY event, got %#v", erepo.appended)
	}
	meta, ok := erepo.appended[0].Metadata.(map[string]any)
	if !ok || meta["reason"] != "operator request" {
		t.Fatalf("expected default reason, got %#v", erepo.appended[0].Metadata)
	}
}

func TestBoilerService_ClearSafety_AutoBoostRearms(t *testing.T) {
	cfg := quietSettings()
	cfg.AutoBoost = true
	svc, _, erepo := newTestBoiler(cfg)

	svc.ctrl.Engine().ForceSafety()

	if err := svc.ClearSafety(context.Background()); err != nil {
		t.Fatalf("ClearSafety: %v", err)
	}
	if got := svc.ctrl.Engine().Phase(); got != boilerassistant.PhaseBoost {
		t.Fatalf("phase = %v, want BOOST after auto-boost reset", got)
	}
	if len(erepo.appended) != 1 || erepo.appended[0].Type != "RESET" {
		t.Fatalf("expected one RESET event, got %#v", erepo.appended)
	}
	meta := erepo.appended[0].Metadata.(map[string]any)
	if meta["was_latched"] != true {
		t.Fatalf("expected was_latched=true, got %#v", meta)
	}
}

func TestBoilerService_ClearSafety_NoAutoBoost(t *testing.T) {
	svc, _, _ := newTestBoiler(quietSettings())

	svc.ctrl.Engine().ForceSafety()

	if err := svc.ClearSafety(context.Background()); err != nil {
		t.Fatalf("ClearSafety: %v", err)
	}
	if got := svc.ctrl.Engine().Phase(); got != boilerassistant.PhaseRamp {
		t.Fatalf("phase = %v, want RAMP", got)
	}
}

func TestBoilerService_GetSettings_LoadsOnce(t *testing.T) {
	svc, srepo, _ := newTestBoiler(quietSettings())

	for i := 0; i < 3; i++ {
		if _, err := svc.GetSettings(context.Background()); err != nil {
			t.Fatalf("GetSettings: %v", err)
		}
	}
	if srepo.loadCalls != 1 {
		t.Fatalf("expected 1 Load call, got %d", srepo.loadCalls)
	}
}

func TestBoilerService_UpdateSettings_ClampsAndPersists(t *testing.T) {
	svc, srepo, erepo := newTestBoiler(quietSettings())

	got, err := svc.UpdateSettings(context.Background(), SettingsPatch{
		ExhaustSetpointF: intPtr(1000), // above ceiling
		BoostSeconds:     intPtr(2),    // below floor
		CoalBedMinutes:   intPtr(3),    // below floor
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	if got.ExhaustSetpointF != 900 {
		t.Errorf("setpoint = %d, want 900", got.ExhaustSetpointF)
	}
	if got.BoostSeconds != 5 {
		t.Errorf("boost = %d, want 5", got.BoostSeconds)
	}
	if got.CoalBedMinutes != 5 {
		t.Errorf("coalbed = %d, want 5", got.CoalBedMinutes)
	}

	if len(srepo.saved) != 1 {
		t.Fatalf("expected 1 Save, got %d", len(srepo.saved))
	}
	if srepo.saved[0] != got {
		t.Fatalf("persisted row differs from returned settings")
	}

	if len(erepo.appended) != 1 || erepo.appended[0].Type != "SETTINGS" {
		t.Fatalf("expected one SETTINGS event, got %#v", erepo.appended)
	}
	meta := erepo.appended[0].Metadata.(map[string]any)
	if meta["exhaust_setpoint_f"] != 900 || meta["boost_seconds"] != 5 {
		t.Fatalf("event metadata should carry clamped values, got %#v", meta)
	}

	// Update cached in memory; no extra Load.
	after, err := svc.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if after != got {
		t.Fatalf("cached settings not updated")
	}
	if srepo.loadCalls != 1 {
		t.Fatalf("expected 1 Load call total, got %d", srepo.loadCalls)
	}
}

func TestBoilerService_UpdateSettings_CrossFieldInvariants(t *testing.T) {
	svc, _, _ := newTestBoiler(quietSettings())

	got, err := svc.UpdateSettings(context.Background(), SettingsPatch{
		ClampMinPercent: intPtr(80),
		ClampMaxPercent: intPtr(60),
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got.ClampMinPercent != 60 || got.ClampMaxPercent != 60 {
		t.Fatalf("clamps = %d/%d, want 60/60", got.ClampMinPercent, got.ClampMaxPercent)
	}

	// Raising the low threshold drags the recovery point with it.
	got, err = svc.UpdateSettings(context.Background(), SettingsPatch{
		FlueLowF: intPtr(480),
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got.FlueLowF != 480 {
		t.Fatalf("flue low = %d, want 480", got.FlueLowF)
	}
	if got.FlueRecoveryF != 490 {
		t.Fatalf("flue recovery = %d, want 490", got.FlueRecoveryF)
	}
}

func TestBoilerService_UpdateSettings_EmptyPatchIsNoop(t *testing.T) {
	svc, srepo, erepo := newTestBoiler(quietSettings())

	got, err := svc.UpdateSettings(context.Background(), SettingsPatch{})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got != quietSettings() {
		t.Fatalf("expected unchanged settings, got %+v", got)
	}
	if len(srepo.saved) != 0 || len(erepo.appended) != 0 {
		t.Fatalf("no writes expected for empty patch")
	}
}

func TestBoilerService_UpdateSettings_SaveError(t *testing.T) {
	svc, srepo, _ := newTestBoiler(quietSettings())
	srepo.saveErr = errors.New("disk full")

	_, err := svc.UpdateSettings(context.Background(), SettingsPatch{
		ExhaustSetpointF: intPtr(400),
	})
	if err == nil {
		t.Fatalf("expected save error")
	}

	// Cache must keep the old row when persistence failed.
	cur, gerr := svc.GetSettings(context.Background())
	if gerr != nil {
		t.Fatalf("GetSettings: %v", gerr)
	}
	if cur.ExhaustSetpointF != quietSettings().ExhaustSetpointF {
		t.Fatalf("cache updated despite save failure: %+v", cur)
	}
}
