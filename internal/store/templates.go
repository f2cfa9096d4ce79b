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

	"gopkg.in/yaml.v3"
)

// DefaultTemplates is the element library seeded into an empty store.
func DefaultTemplates() []model.Template {
	return []model.Template{
		{Name: "Sponsor Read", Type: "Sponsor Read", DefaultDurationSeconds: 30,
			Description: "Live read by the play-by-play announcer.",
			Text:        "This portion of the broadcast is brought to you by {sponsor}. {tagline}"},
		{Name: "Halftime Marker", Type: "Permanent Marker", DefaultDurationSeconds: 60},
		{Name: "Kickoff", Type: "Game Event", DefaultDurationSeconds: 60},
		{Name: "Timeout", Type: "Game Event", DefaultDurationSeconds: 90},
		{Name: "Sideline Report", Type: "Talent", DefaultDurationSeconds: 45,
			Text: "{reporter} reports from the {side} sideline."},
		{Name: "Lower Third", Type: "Graphic", DefaultDurationSeconds: 10, Text: "{name}, {title}"},
		{Name: "Score Bug Update", Type: "Graphic", DefaultDurationSeconds: 5},
		{Name: "Stinger", Type: "Audio", DefaultDurationSeconds: 5},
		{Name: "Replay Package", Type: "Production", DefaultDurationSeconds: 20},
	}
}

func (s Store) ListTemplates(ctx context.Context) ([]model.Template, error) {
	out := []model.Template{}
	err := s.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT json FROM templates ORDER BY name COLLATE NOCASE, id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var js string
			if err := rows.Scan(&js); err != nil {
				return err
			}
			var t model.Template
			if err := json.Unmarshal([]byte(js), &t); err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindTemplate resolves a template by id or case-insensitive name.
func (s Store) FindTemplate(ctx context.Context, ref string) (model.Template, error) {
	ref = strings.TrimSpace(ref)
	all, err := s.ListTemplates(ctx)
	if err != nil {
		return model.Template{}, err
	}
	for _, t := range all {
		if t.ID == ref {
			return t, nil
		}
	}
	for _, t := range all {
		if strings.EqualFold(t.Name, ref) {
			return t, nil
		}
	}
	return model.Template{}, NotFoundError{Kind: "template", ID: ref}
}

func normalizeTemplate(t model.Template) (model.Template, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.Type = strings.TrimSpace(t.Type)
	t.SponsorName = strings.TrimSpace(t.SponsorName)
	if t.Name == "" {
		return t, ValidationError{Field: "name", Reason: "must not be blank"}
	}
	d, err := normalizeDuration(t.DefaultDurationSeconds)
	if err != nil {
		return t, err
	}
	t.DefaultDurationSeconds = d
	return t, nil
}

func upsertTemplate(ctx context.Context, tx *sql.Tx, s Store, t model.Template) (model.Template, error) {
	t, err := normalizeTemplate(t)
	if err != nil {
		return t, err
	}
	if strings.TrimSpace(t.ID) == "" {
		// Re-importing a library updates same-named templates instead of duplicating them.
		var existing string
		err := tx.QueryRowContext(ctx, `SELECT id FROM templates WHERE name = ? COLLATE NOCASE ORDER BY id LIMIT 1`, t.Name).Scan(&existing)
		switch {
		case err == nil:
			t.ID = existing
		case errors.Is(err, sql.ErrNoRows):
			t.ID = newID(prefixTemplate)
		default:
			return t, err
		}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return t, err
	}
	now := s.now()
	if _, err := tx.ExecContext(ctx, `INSERT INTO templates(id, name, json, updated_at_unixms) VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, json = excluded.json, updated_at_unixms = excluded.updated_at_unixms`,
		t.ID, t.Name, string(b), now.UnixMilli()); err != nil {
		return t, err
	}
	return t, appendLog(ctx, tx, now, LogTemplateSaved, t.ID, t)
}

func (s Store) UpsertTemplate(ctx context.Context, t model.Template) (model.Template, error) {
	var out model.Template
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = upsertTemplate(ctx, tx, s, t)
		return err
	})
	return out, err
}

func (s Store) DeleteTemplate(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NotFoundError{Kind: "template", ID: id}
		}
		return appendLog(ctx, tx, s.now(), LogTemplateDeleted, id, map[string]string{"id": id})
	})
}

// SeedTemplates installs DefaultTemplates when the library is empty and
// reports how many were added.
func (s Store) SeedTemplates(ctx context.Context) (int, error) {
	n := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates`).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, t := range DefaultTemplates() {
			if _, err := upsertTemplate(ctx, tx, s, t); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// templateWire is the on-disk shape of an importable template. Durations may
// be given in seconds or minutes; minutes are converted here.
type templateWire struct {
	ID                     string   `json:"id" yaml:"id"`
	Name                   string   `json:"name" yaml:"name"`
	Description            string   `json:"description" yaml:"description"`
	Type                   string   `json:"type" yaml:"type"`
	DefaultDurationSeconds *float64 `json:"defaultDurationSeconds" yaml:"default_duration_seconds"`
	DefaultDurationMinutes *float64 `json:"defaultDurationMinutes" yaml:"default_duration_minutes"`
	SponsorName            string   `json:"sponsorName" yaml:"sponsor"`
	Text                   string   `json:"text" yaml:"text"`
}

func (w templateWire) template() model.Template {
	t := model.Template{
		ID:          strings.TrimSpace(w.ID),
		Name:        w.Name,
		Description: w.Description,
		Type:        w.Type,
		SponsorName: w.SponsorName,
		Text:        w.Text,
	}
	switch {
	case w.DefaultDurationSeconds != nil:
		t.DefaultDurationSeconds = *w.DefaultDurationSeconds
	case w.DefaultDurationMinutes != nil:
		t.DefaultDurationSeconds = *w.DefaultDurationMinutes * 60
	}
	return t
}

// ParseTemplates decodes a template library. format is "yaml" or "json"; both
// accept a bare list or an object with a "templates" list.
func ParseTemplates(data []byte, format string) ([]model.Template, error) {
	var (
		list    []templateWire
		wrapped struct {
			Templates []templateWire `json:"templates" yaml:"templates"`
		}
	)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		if err := json.Unmarshal(data, &list); err != nil {
			if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
				return nil, fmt.Errorf("parse json templates: %w", err)
			}
			list = wrapped.Templates
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &list); err != nil {
			if err2 := yaml.Unmarshal(data, &wrapped); err2 != nil {
				return nil, fmt.Errorf("parse yaml templates: %w", err)
			}
			list = wrapped.Templates
		}
	default:
		return nil, fmt.Errorf("unknown template format %q (want yaml|json)", format)
	}

	out := make([]model.Template, 0, len(list))
	for i, w := range list {
		t := w.template()
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("template %d: %w", i, ValidationError{Field: "name", Reason: "must not be blank"})
		}
		out = append(out, t)
	}
	return out, nil
}

// ImportTemplates reads a YAML or JSON library file and upserts every entry
// in one transaction.
func (s Store) ImportTemplates(ctx context.Context, path string) ([]model.Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	parsed, err := ParseTemplates(b, format)
	if err != nil {
		return nil, err
	}
	out := make([]model.Template, 0, len(parsed))
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range parsed {
			saved, err := upsertTemplate(ctx, tx, s, t)
			if err != nil {
				return fmt.Errorf("template %q: %w", t.Name, err)
			}
			out = append(out, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
