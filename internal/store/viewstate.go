package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"cuesheet/internal/timeline"
)

// ViewState is the per-game canvas view remembered between sessions.
type ViewState struct {
	Orientation timeline.Orientation `json:"orientation"`
	Zoom        float64              `json:"zoom"`
	Interval    timeline.Interval    `json:"interval"`
	Origin      float64              `json:"origin"`
}

func ViewStateOf(v timeline.Viewport) ViewState {
	return ViewState{
		Orientation: v.Orientation,
		Zoom:        v.Zoom.Level,
		Interval:    v.Interval,
		Origin:      v.Origin,
	}
}

// Apply copies the remembered view onto v, keeping its size and metrics.
func (vs ViewState) Apply(v timeline.Viewport) timeline.Viewport {
	v.Orientation = vs.Orientation
	v.Interval = vs.Interval
	if vs.Zoom > 0 {
		v.Zoom.Level = vs.Zoom
	}
	v.Zoom = v.Zoom.Clamp()
	if vs.Origin > 0 {
		v.Origin = vs.Origin
	} else {
		v.Origin = 0
	}
	return v
}

// LoadViewState returns ok=false when the game has no saved view.
func (s Store) LoadViewState(ctx context.Context, gameID string) (ViewState, bool, error) {
	var (
		vs ViewState
		ok bool
	)
	err := s.withDB(ctx, func(db *sql.DB) error {
		var js string
		err := db.QueryRowContext(ctx, `SELECT json FROM view_state WHERE game_id = ?`, gameID).Scan(&js)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(js), &vs); err != nil {
			return err
		}
		ok = true
		return nil
	})
	return vs, ok, err
}

func (s Store) SaveViewState(ctx context.Context, gameID string, vs ViewState) error {
	b, err := json.Marshal(vs)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := gameExists(ctx, tx, gameID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO view_state(game_id, json, updated_at_unixms) VALUES(?, ?, ?)
			ON CONFLICT(game_id) DO UPDATE SET json = excluded.json, updated_at_unixms = excluded.updated_at_unixms`,
			gameID, string(b), s.now().UnixMilli())
		return err
	})
}
