package repository

import (
	"context"
	"database/sql"
	"time"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*boilerassistant.User, error)
}

// SettingsRepo persists the single row of combustion parameters. Load
// repairs out-of-range values to factory defaults instead of failing.
type SettingsRepo interface {
	Save(ctx context.Context, s boilerassistant.Settings) error
	Load(ctx context.Context) (boilerassistant.Settings, error)
}

// StatusRepo persists the latest telemetry snapshot.
type StatusRepo interface {
	Save(ctx context.Context, s boilerassistant.ControlStatus) error
	Load(ctx context.Context) (boilerassistant.ControlStatus, error)
}

type EventRepo interface {
	Append(ctx context.Context, e boilerassistant.BoilerEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]boilerassistant.BoilerEvent, error)
}

type Repository struct {
	SettingsRepo SettingsRepo
	StatusRepo   StatusRepo
	EventRepo    EventRepo
	Auth         Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SettingsRepo: NewSettingsSQLite(db),
		StatusRepo:   NewStatusSQLite(db),
		EventRepo:    NewEventSQLite(db),
		Auth:         NewUserRepository(db),
	}
}
