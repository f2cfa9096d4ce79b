package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const schemaVersion = 1

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kickoff TEXT NOT NULL DEFAULT '',
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			lane_id TEXT NOT NULL,
			start_offset_seconds REAL NOT NULL,
			duration_seconds REAL NOT NULL,
			element_type TEXT NOT NULL DEFAULT '',
			sponsor TEXT,
			template_id TEXT,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_game ON events(game_id, position);`,
		`CREATE TABLE IF NOT EXISTS templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS change_log (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_change_log_entity ON change_log(entity_id);`,
		`CREATE TABLE IF NOT EXISTS view_state (
			game_id TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}

	var v string
	err := db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = 'schema_version'`).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.ExecContext(ctx, `INSERT INTO meta(k, v) VALUES('schema_version', ?)`, strconv.Itoa(schemaVersion))
		return err
	case err != nil:
		return err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("schema_version %q: %w", v, err)
	}
	if n > schemaVersion {
		return fmt.Errorf("database schema v%d is newer than this binary (v%d)", n, schemaVersion)
	}
	return nil
}
