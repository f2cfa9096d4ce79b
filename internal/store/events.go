package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"cuesheet/internal/model"
)

// DefaultEventDurationSeconds is used when a draft carries no positive duration.
const DefaultEventDurationSeconds = 60

const eventColumns = `id, game_id, title, description, lane_id, start_offset_seconds, duration_seconds,
	element_type, sponsor, template_id, created_at_unixms, updated_at_unixms`

// ListEvents returns a game's events in declared order.
func (s Store) ListEvents(ctx context.Context, gameID string) ([]model.TimelineEvent, error) {
	out := []model.TimelineEvent{}
	err := s.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events WHERE game_id = ? ORDER BY position, id`, gameID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			ev, err := scanEvent(rows)
			if err != nil {
				return err
			}
			out = append(out, ev)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s Store) FindEvent(ctx context.Context, id string) (model.TimelineEvent, error) {
	var ev model.TimelineEvent
	err := s.withDB(ctx, func(db *sql.DB) error {
		var err error
		ev, err = findEvent(db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id), id)
		return err
	})
	return ev, err
}

func findEvent(row *sql.Row, id string) (model.TimelineEvent, error) {
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TimelineEvent{}, NotFoundError{Kind: "event", ID: id}
	}
	return ev, err
}

func scanEvent(r rowScanner) (model.TimelineEvent, error) {
	var (
		ev                  model.TimelineEvent
		sponsor, templateID sql.NullString
		createdMs, updMs    int64
	)
	if err := r.Scan(&ev.ID, &ev.GameID, &ev.Title, &ev.Description, &ev.LaneID,
		&ev.StartOffsetSeconds, &ev.DurationSeconds, &ev.ElementType,
		&sponsor, &templateID, &createdMs, &updMs); err != nil {
		return model.TimelineEvent{}, err
	}
	if sponsor.Valid {
		ev.Sponsor = model.StringPtr(sponsor.String)
	}
	if templateID.Valid {
		ev.TemplateID = model.StringPtr(templateID.String)
	}
	ev.CreatedAt = time.UnixMilli(createdMs).UTC()
	ev.UpdatedAt = time.UnixMilli(updMs).UTC()
	return ev, nil
}

func nullable(p *string) any {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return strings.TrimSpace(*p)
}

func normalizeOffset(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ValidationError{Field: "startOffsetSeconds", Reason: "must be a finite number"}
	}
	return math.Max(0, v), nil
}

func normalizeDuration(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ValidationError{Field: "durationSeconds", Reason: "must be a finite number"}
	}
	if v <= 0 {
		return DefaultEventDurationSeconds, nil
	}
	return v, nil
}

func validateEvent(ev *model.TimelineEvent) error {
	ev.Title = strings.TrimSpace(ev.Title)
	if ev.Title == "" {
		return ValidationError{Field: "title", Reason: "must not be blank"}
	}
	ev.LaneID = strings.TrimSpace(ev.LaneID)
	if ev.LaneID == "" {
		return ValidationError{Field: "laneId", Reason: "must not be blank"}
	}
	var err error
	if ev.StartOffsetSeconds, err = normalizeOffset(ev.StartOffsetSeconds); err != nil {
		return err
	}
	if ev.DurationSeconds, err = normalizeDuration(ev.DurationSeconds); err != nil {
		return err
	}
	return nil
}

// CreateEvent appends an event to the end of the game's declared order.
func (s Store) CreateEvent(ctx context.Context, gameID string, d model.EventDraft) (model.TimelineEvent, error) {
	now := s.now()
	ev := model.TimelineEvent{
		ID:                 newID(prefixEvent),
		GameID:             gameID,
		Title:              d.Title,
		Description:        d.Description,
		LaneID:             d.LaneID,
		StartOffsetSeconds: d.StartOffsetSeconds,
		DurationSeconds:    d.DurationSeconds,
		ElementType:        strings.TrimSpace(d.ElementType),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if v := nullable(d.Sponsor); v != nil {
		ev.Sponsor = model.StringPtr(v.(string))
	}
	if v := nullable(d.TemplateID); v != nil {
		ev.TemplateID = model.StringPtr(v.(string))
	}
	if err := validateEvent(&ev); err != nil {
		return model.TimelineEvent{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := gameExists(ctx, tx, gameID); err != nil {
			return err
		}
		var pos int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM events WHERE game_id = ?`, gameID).Scan(&pos); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO events(`+eventColumns+`, position) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.GameID, ev.Title, ev.Description, ev.LaneID, ev.StartOffsetSeconds, ev.DurationSeconds,
			ev.ElementType, nullable(ev.Sponsor), nullable(ev.TemplateID), now.UnixMilli(), now.UnixMilli(), pos); err != nil {
			return err
		}
		return appendLog(ctx, tx, now, LogEventCreated, ev.ID, ev)
	})
	if err != nil {
		return model.TimelineEvent{}, err
	}
	return ev, nil
}

func (s Store) UpdateEvent(ctx context.Context, id string, p model.EventPatch) (model.TimelineEvent, error) {
	if p.Empty() {
		return model.TimelineEvent{}, ValidationError{Field: "patch", Reason: "no fields to update"}
	}
	var out model.TimelineEvent
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := findEvent(tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id), id)
		if err != nil {
			return err
		}
		next := p.Apply(cur)
		if err := validateEvent(&next); err != nil {
			return err
		}
		now := s.now()
		next.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, `UPDATE events SET title = ?, description = ?, lane_id = ?,
			start_offset_seconds = ?, duration_seconds = ?, element_type = ?, updated_at_unixms = ?
			WHERE id = ?`,
			next.Title, next.Description, next.LaneID, next.StartOffsetSeconds, next.DurationSeconds,
			strings.TrimSpace(next.ElementType), now.UnixMilli(), id); err != nil {
			return err
		}
		out = next
		return appendLog(ctx, tx, now, LogEventUpdated, id, p)
	})
	if err != nil {
		return model.TimelineEvent{}, err
	}
	return out, nil
}

func (s Store) DeleteEvent(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return NotFoundError{Kind: "event", ID: id}
		}
		return appendLog(ctx, tx, s.now(), LogEventDeleted, id, map[string]string{"id": id})
	})
}
