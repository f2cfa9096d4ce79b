package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cuesheet/internal/model"
)

func (s Store) CreateGame(ctx context.Context, name, kickoff string) (model.Game, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Game{}, ValidationError{Field: "name", Reason: "must not be blank"}
	}
	now := s.now()
	g := model.Game{
		ID:        newID(prefixGame),
		Name:      name,
		Kickoff:   strings.TrimSpace(kickoff),
		CreatedAt: now,
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO games(id, name, kickoff, created_at_unixms) VALUES(?, ?, ?, ?)`,
			g.ID, g.Name, g.Kickoff, now.UnixMilli()); err != nil {
			return err
		}
		return appendLog(ctx, tx, now, LogGameCreated, g.ID, g)
	})
	if err != nil {
		return model.Game{}, err
	}
	return g, nil
}

func (s Store) ListGames(ctx context.Context) ([]model.Game, error) {
	out := []model.Game{}
	err := s.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT id, name, kickoff, created_at_unixms FROM games ORDER BY created_at_unixms, id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			g, err := scanGame(rows)
			if err != nil {
				return err
			}
			out = append(out, g)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindGame resolves a game by id, or by a case-insensitive name when exactly
// one game carries it.
func (s Store) FindGame(ctx context.Context, ref string) (model.Game, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Game{}, NotFoundError{Kind: "game", ID: ref}
	}
	games, err := s.ListGames(ctx)
	if err != nil {
		return model.Game{}, err
	}
	var byName []model.Game
	for _, g := range games {
		if g.ID == ref {
			return g, nil
		}
		if strings.EqualFold(g.Name, ref) {
			byName = append(byName, g)
		}
	}
	switch len(byName) {
	case 1:
		return byName[0], nil
	case 0:
		return model.Game{}, NotFoundError{Kind: "game", ID: ref}
	default:
		return model.Game{}, fmt.Errorf("game name %q is ambiguous (%d matches); use an id", ref, len(byName))
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(r rowScanner) (model.Game, error) {
	var (
		g    model.Game
		tsMs int64
	)
	if err := r.Scan(&g.ID, &g.Name, &g.Kickoff, &tsMs); err != nil {
		return model.Game{}, err
	}
	g.CreatedAt = time.UnixMilli(tsMs).UTC()
	return g, nil
}

func gameExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundError{Kind: "game", ID: id}
	}
	return err
}

const metaCurrentGame = "current_game"

// UseGame remembers ref as the game commands act on when none is named.
func (s Store) UseGame(ctx context.Context, ref string) (model.Game, error) {
	g, err := s.FindGame(ctx, ref)
	if err != nil {
		return model.Game{}, err
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO meta(k, v) VALUES(?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
			metaCurrentGame, g.ID)
		return err
	})
	if err != nil {
		return model.Game{}, err
	}
	return g, nil
}

// CurrentGame returns the game chosen with UseGame. ok is false when none was
// chosen or the chosen game has since been removed.
func (s Store) CurrentGame(ctx context.Context) (g model.Game, ok bool, err error) {
	var id string
	err = s.withDB(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, metaCurrentGame).Scan(&id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.Game{}, false, nil
	}
	if err != nil {
		return model.Game{}, false, err
	}
	g, err = s.FindGame(ctx, id)
	var nf NotFoundError
	if errors.As(err, &nf) {
		return model.Game{}, false, nil
	}
	if err != nil {
		return model.Game{}, false, err
	}
	return g, true, nil
}
