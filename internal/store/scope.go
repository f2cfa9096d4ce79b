package store

import (
	"context"

	"cuesheet/internal/model"
)

// GameScope binds a Store to one game so the canvas controller's persistence
// effects can run without knowing about games.
type GameScope struct {
	Store  Store
	GameID string
}

func (g GameScope) CreateEvent(ctx context.Context, d model.EventDraft) (model.TimelineEvent, error) {
	return g.Store.CreateEvent(ctx, g.GameID, d)
}

func (g GameScope) UpdateEvent(ctx context.Context, id string, p model.EventPatch) (model.TimelineEvent, error) {
	return g.Store.UpdateEvent(ctx, id, p)
}

func (g GameScope) DeleteEvent(ctx context.Context, id string) error {
	return g.Store.DeleteEvent(ctx, id)
}

func (g GameScope) Events(ctx context.Context) ([]model.TimelineEvent, error) {
	return g.Store.ListEvents(ctx, g.GameID)
}
