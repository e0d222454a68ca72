package service

import (
	"context"
	"time"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/control"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Boiler exposes operator commands: boost, safety latch and parameter
// changes. Out-of-range parameters are clamped, never rejected.
type Boiler interface {
	StartBoost(ctx context.Context) error
	ForceSafety(ctx context.Context, reason string) error
	ClearSafety(ctx context.Context) error
	GetSettings(ctx context.Context) (boilerassistant.Settings, error)
	UpdateSettings(ctx context.Context, p SettingsPatch) (boilerassistant.Settings, error)
}

// Monitoring exposes the latest telemetry snapshot.
type Monitoring interface {
	Status(ctx context.Context) (boilerassistant.ControlStatus, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]boilerassistant.BoilerEvent, error)
}

// Runner drives the control loop until ctx is canceled. Stop via
// context cancellation in main() for graceful shutdown.
type Runner interface {
	Run(ctx context.Context, tick time.Duration)
}

// EnvSource supplies the optional room-climate reading. A failed
// sensor read comes back with OK=false rather than an error.
type EnvSource interface {
	Read() boilerassistant.EnvReading
}

// AirflowSink receives the commanded fan percentage. The simulated
// firebox uses it to close the loop; hardware builds may ignore it.
type AirflowSink interface {
	SetAirflow(percent int)
}

type Service struct {
	Boiler
	Monitoring
	EventLog
	Runner
	Authorization
}

// NewService wires the repository layer and the control pipeline into
// concrete services. env and airflow may be nil.
func NewService(repos *repository.Repository, ctrl *control.Controller, env EnvSource, airflow AirflowSink) *Service {
	boiler := NewBoilerService(ctrl, repos.SettingsRepo, repos.EventRepo)
	return &Service{
		Boiler:        boiler,
		Monitoring:    NewMonitoringService(repos.StatusRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Runner:        NewRunnerService(boiler, repos.StatusRepo, repos.EventRepo, env, airflow),
		Authorization: NewAuthService(repos.Auth),
	}
}
