package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuesheet/internal/model"
)

// Backup writes a consistent copy of the database to destPath. The file must
// not already exist.
func (s Store) Backup(ctx context.Context, destPath string) error {
	destPath = strings.TrimSpace(destPath)
	if destPath == "" {
		return ValidationError{Field: "path", Reason: "must not be blank"}
	}
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("backup: %s already exists", destPath)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	return s.withDB(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `VACUUM INTO ?`, destPath)
		return err
	})
}

// GameExport is the portable JSON snapshot of one game's running order.
type GameExport struct {
	Version int                   `json:"version"`
	Game    model.Game            `json:"game"`
	Events  []model.TimelineEvent `json:"events"`
	View    *ViewState            `json:"view,omitempty"`
}

const exportVersion = 1

func (s Store) ExportGame(ctx context.Context, gameID string) (GameExport, error) {
	g, err := s.FindGame(ctx, gameID)
	if err != nil {
		return GameExport{}, err
	}
	evs, err := s.ListEvents(ctx, g.ID)
	if err != nil {
		return GameExport{}, err
	}
	out := GameExport{Version: exportVersion, Game: g, Events: evs}
	if vs, ok, err := s.LoadViewState(ctx, g.ID); err != nil {
		return GameExport{}, err
	} else if ok {
		out.View = &vs
	}
	return out, nil
}

func WriteExport(path string, ex GameExport) error {
	b, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func ReadExport(path string) (GameExport, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return GameExport{}, err
	}
	var ex GameExport
	if err := json.Unmarshal(b, &ex); err != nil {
		return GameExport{}, fmt.Errorf("read export: %w", err)
	}
	if ex.Version > exportVersion {
		return GameExport{}, fmt.Errorf("export version %d is newer than this binary (%d)", ex.Version, exportVersion)
	}
	return ex, nil
}

// ImportGame restores an export as a new game with fresh ids, preserving the
// events' declared order.
func (s Store) ImportGame(ctx context.Context, ex GameExport) (model.Game, error) {
	name := strings.TrimSpace(ex.Game.Name)
	if name == "" {
		return model.Game{}, errors.New("import: game has no name")
	}
	now := s.now()
	g := model.Game{ID: newID(prefixGame), Name: name, Kickoff: strings.TrimSpace(ex.Game.Kickoff), CreatedAt: now}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO games(id, name, kickoff, created_at_unixms) VALUES(?, ?, ?, ?)`,
			g.ID, g.Name, g.Kickoff, now.UnixMilli()); err != nil {
			return err
		}
		if err := appendLog(ctx, tx, now, LogGameCreated, g.ID, g); err != nil {
			return err
		}
		for i, src := range ex.Events {
			ev := src
			ev.ID = newID(prefixEvent)
			ev.GameID = g.ID
			if err := validateEvent(&ev); err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO events(`+eventColumns+`, position) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				ev.ID, ev.GameID, ev.Title, ev.Description, ev.LaneID, ev.StartOffsetSeconds, ev.DurationSeconds,
				strings.TrimSpace(ev.ElementType), nullable(ev.Sponsor), nullable(ev.TemplateID),
				now.UnixMilli(), now.UnixMilli(), i); err != nil {
				return err
			}
			if err := appendLog(ctx, tx, now, LogEventCreated, ev.ID, ev); err != nil {
				return err
			}
		}
		if ex.View != nil {
			b, err := json.Marshal(ex.View)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO view_state(game_id, json, updated_at_unixms) VALUES(?, ?, ?)`,
				g.ID, string(b), now.UnixMilli()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Game{}, err
	}
	return g, nil
}
