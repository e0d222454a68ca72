package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaBoilerSettings = `
CREATE TABLE IF NOT EXISTS boiler_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    setpoint_f INTEGER NOT NULL,
    deadband_f INTEGER NOT NULL,
    boost_s INTEGER NOT NULL,
    clamp_min INTEGER NOT NULL,
    clamp_max INTEGER NOT NULL,
    deadzone_fan BOOLEAN NOT NULL,
    coalbed_min INTEGER NOT NULL,
    flue_low_f INTEGER NOT NULL,
    flue_recovery_f INTEGER NOT NULL,
    auto_boost BOOLEAN NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaBoilerStatus = `
CREATE TABLE IF NOT EXISTS boiler_status (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    phase TEXT NOT NULL,
    exhaust_f REAL,
    fan_percent INTEGER NOT NULL,
    damper_open BOOLEAN NOT NULL,
    boost_remaining_s INTEGER NOT NULL,
    timer_label TEXT,
    timer_remaining_s INTEGER NOT NULL,
    env TEXT,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaBoilerEvents = `
CREATE TABLE IF NOT EXISTS boiler_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaBoilerSettings,
		schemaBoilerStatus,
		schemaBoilerEvents,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
