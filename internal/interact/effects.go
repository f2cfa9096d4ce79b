package interact

import (
	"cuesheet/internal/model"
	"cuesheet/internal/timeline"
)

// Effect is a side effect requested by the controller; hosts execute them.
type Effect interface{ effect() }

type CreateEvent struct {
	Draft model.EventDraft
}

type UpdateEvent struct {
	ID    string
	Patch model.EventPatch
}

type DeleteEvent struct {
	ID string
}

// OpenCreateFlow asks the host to show its create-event form. Offset is the raw
// pointer time; Snapped is the same time rounded to the active interval.
type OpenCreateFlow struct {
	Offset  float64
	Snapped float64
	LaneID  string
}

type OpenEditFlow struct {
	EventID string
}

type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notify is a user-visible, non-fatal message.
type Notify struct {
	Level   Level
	Message string
}

type Rerender struct{}

// ViewChanged carries a viewport the host may persist.
type ViewChanged struct {
	Viewport timeline.Viewport
}

func (CreateEvent) effect()    {}
func (UpdateEvent) effect()    {}
func (DeleteEvent) effect()    {}
func (OpenCreateFlow) effect() {}
func (OpenEditFlow) effect()   {}
func (Notify) effect()         {}
func (Rerender) effect()       {}
func (ViewChanged) effect()    {}

func rerender() []Effect { return []Effect{Rerender{}} }

func notify(level Level, msg string) Effect { return Notify{Level: level, Message: msg} }
