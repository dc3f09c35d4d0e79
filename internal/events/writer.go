// Package events appends job lifecycle entries to the audit log. The log is
// the only durable state in the process; jobs themselves live in memory.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts" format:"date-time"`
	Type    string `json:"type"`
	JobID   string `json:"job_id,omitempty"`
	Payload string `json:"payload_json"`
}

// Append records one lifecycle event. A Writer with a nil DB is a no-op so
// the engine can run without a workspace (tests, ephemeral servers).
func (w Writer) Append(ctx context.Context, evtType, jobID string, payload EventPayload) error {
	if w.DB == nil {
		return nil
	}
	now := w.Now
	if now == nil {
		now = time.Now
	}
	ts := now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = w.DB.ExecContext(ctx, `INSERT INTO events(ts,type,job_id,payload_json) VALUES (?,?,?,?)`,
		ts, evtType, nullable(jobID), string(data))
	return err
}

// Tail returns the most recent events, newest first.
func (w Writer) Tail(ctx context.Context, limit int) ([]Event, error) {
	if w.DB == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := w.DB.QueryContext(ctx,
		`SELECT id, ts, type, COALESCE(job_id,''), payload_json FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.JobID, &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
