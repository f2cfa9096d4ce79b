package interact

import (
	"context"
	"fmt"

	"cuesheet/internal/model"
)

// Persistence is the collaborator that owns event records.
type Persistence interface {
	CreateEvent(ctx context.Context, draft model.EventDraft) (model.TimelineEvent, error)
	UpdateEvent(ctx context.Context, id string, patch model.EventPatch) (model.TimelineEvent, error)
	DeleteEvent(ctx context.Context, id string) error
}

// Outcome is the result of a dispatched effect, fed back through Controller.Resolve.
type Outcome struct {
	Effect Effect
	Event  *model.TimelineEvent
	Err    error
}

// IsPersistence reports whether e must be run through Dispatch.
func IsPersistence(e Effect) bool {
	switch e.(type) {
	case CreateEvent, UpdateEvent, DeleteEvent:
		return true
	default:
		return false
	}
}

// Dispatch runs one persistence effect. Hosts call it off the UI loop.
func Dispatch(ctx context.Context, p Persistence, e Effect) Outcome {
	out := Outcome{Effect: e}
	if p == nil {
		out.Err = fmt.Errorf("no persistence configured")
		return out
	}
	switch e := e.(type) {
	case CreateEvent:
		ev, err := p.CreateEvent(ctx, e.Draft)
		if err != nil {
			out.Err = fmt.Errorf("create event: %w", err)
			return out
		}
		out.Event = &ev
	case UpdateEvent:
		ev, err := p.UpdateEvent(ctx, e.ID, e.Patch)
		if err != nil {
			out.Err = fmt.Errorf("update event %s: %w", e.ID, err)
			return out
		}
		out.Event = &ev
	case DeleteEvent:
		if err := p.DeleteEvent(ctx, e.ID); err != nil {
			out.Err = fmt.Errorf("delete event %s: %w", e.ID, err)
		}
	}
	return out
}
