package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"momentum-cli/internal/model"
)

func (s *Store) migrateEvents(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			issued_at_unixms INTEGER NOT NULL,
			payload_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_issued ON events(issued_at_unixms);`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_id);`,
	}
	for _, st := range stmts {
		if _, err := s.db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// AppendEvent records a mutation in the append-only audit log.
func (s *Store) AppendEvent(ctx context.Context, eventType, entityID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ev := model.Event{
		ID:       NewID("evt"),
		TS:       time.Now().UTC(),
		Type:     strings.TrimSpace(eventType),
		EntityID: strings.TrimSpace(entityID),
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO events(event_id, type, entity_id, issued_at_unixms, payload_json) VALUES(?, ?, ?, ?, ?)`,
		ev.ID, ev.Type, ev.EntityID, ev.TS.UnixMilli(), string(raw))
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "event appended", "type", ev.Type, "entity", ev.EntityID)
	return nil
}

// Events returns the newest events first. limit <= 0 returns everything.
// entityID filters when non-empty.
func (s *Store) Events(ctx context.Context, entityID string, limit int) ([]model.Event, error) {
	q := `SELECT event_id, type, entity_id, issued_at_unixms, payload_json FROM events`
	var args []any
	if entityID = strings.TrimSpace(entityID); entityID != "" {
		q += ` WHERE entity_id = ?`
		args = append(args, entityID)
	}
	q += ` ORDER BY issued_at_unixms DESC, rowid DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		var (
			ev      model.Event
			issued  int64
			payload string
		)
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.EntityID, &issued, &payload); err != nil {
			return nil, err
		}
		ev.TS = time.UnixMilli(issued).UTC()
		var p any
		if err := json.Unmarshal([]byte(payload), &p); err == nil {
			ev.Payload = p
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
