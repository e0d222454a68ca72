package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
)

const (
	eventColumns = "id, occurred_at, type, message, meta"

	insertEventSQL = `
INSERT INTO boiler_events (` + eventColumns + `)
VALUES (?, ?, ?, ?, ?)`

	// SQLite TIMESTAMP column format, always UTC.
	eventTimeLayout = "2006-01-02 15:04:05"
)

// EventSQLite is the append-only burn history: phase transitions,
// operator commands and settings changes.
type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

var _ EventRepo = (*EventSQLite)(nil)

// Append inserts one event, filling in the id and timestamp when the
// caller left them empty.
func (r *EventSQLite) Append(ctx context.Context, e boilerassistant.BoilerEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	meta, err := marshalMeta(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode event metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.OccurredAt.UTC().Format(eventTimeLayout),
		normalizeType(e.Type),
		e.Description,
		meta,
	)
	if err != nil {
		return fmt.Errorf("append %s event: %w", normalizeType(e.Type), err)
	}
	return nil
}

// List returns events inside [from, to] (either bound optional),
// filtered by type when typ is non-empty, oldest first.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]boilerassistant.BoilerEvent, error) {
	var (
		q    strings.Builder
		args []any
	)
	q.WriteString("SELECT " + eventColumns + " FROM boiler_events")

	var conds []string
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if typ = normalizeType(typ); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if len(conds) > 0 {
		q.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	q.WriteString(" ORDER BY occurred_at ASC")

	rows, err := r.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]boilerassistant.BoilerEvent, 0, 64)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// normalizeType maps wire input to the canonical upper-case event type.
func normalizeType(typ string) string {
	return strings.ToUpper(strings.TrimSpace(typ))
}

func marshalMeta(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func scanEvent(rows *sql.Rows) (boilerassistant.BoilerEvent, error) {
	var (
		ev   boilerassistant.BoilerEvent
		meta sql.NullString
	)
	if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &ev.Description, &meta); err != nil {
		return ev, fmt.Errorf("scan event row: %w", err)
	}
	ev.OccurredAt = ev.OccurredAt.UTC()

	if meta.Valid && meta.String != "" {
		var v any
		if err := json.Unmarshal([]byte(meta.String), &v); err == nil {
			ev.Metadata = v
		} else {
			ev.Metadata = meta.String // keep raw if malformed
		}
	}
	return ev, nil
}
