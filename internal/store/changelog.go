package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"cuesheet/internal/model"
)

const (
	LogGameCreated     = "game.created"
	LogEventCreated    = "event.created"
	LogEventUpdated    = "event.updated"
	LogEventDeleted    = "event.deleted"
	LogTemplateSaved   = "template.saved"
	LogTemplateDeleted = "template.deleted"
)

// appendLog writes one change_log row inside the caller's transaction.
func appendLog(ctx context.Context, tx *sql.Tx, now time.Time, typ, entityID string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO change_log(id, type, entity_id, payload_json, created_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		newID(prefixLog), typ, entityID, string(b), now.UnixMilli())
	return err
}

// ReadLog returns change_log entries oldest first. entityID filters when set;
// limit == 0 means "all", otherwise the newest limit entries are returned.
func (s Store) ReadLog(ctx context.Context, entityID string, limit int) ([]model.LogEntry, error) {
	out := []model.LogEntry{}
	err := s.withDB(ctx, func(db *sql.DB) error {
		q := `SELECT id, type, entity_id, payload_json, created_at_unixms FROM change_log`
		var args []any
		if id := strings.TrimSpace(entityID); id != "" {
			q += ` WHERE entity_id = ?`
			args = append(args, id)
		}
		q += ` ORDER BY rowid DESC`
		if limit > 0 {
			q += ` LIMIT ?`
			args = append(args, limit)
		}
		rows, err := db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e           model.LogEntry
				payloadJSON string
				tsMs        int64
			)
			if err := rows.Scan(&e.ID, &e.Type, &e.EntityID, &payloadJSON, &tsMs); err != nil {
				return err
			}
			_ = json.Unmarshal([]byte(payloadJSON), &e.Payload)
			e.TS = time.UnixMilli(tsMs).UTC()
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
