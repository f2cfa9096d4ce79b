package interact

import (
	"cuesheet/internal/model"
	"cuesheet/internal/timeline"
)

// State is the controller's tagged union. Exactly one variant is active.
type State interface {
	Name() string
	state()
}

type Idle struct{}

// Dragging is the single active drag session.
type Dragging struct {
	EventID      string
	OriginOffset float64
	OriginLaneID string
	Origin       timeline.Point
	Current      timeline.Point
	// Moved is set once the pointer travels past the drag threshold.
	Moved bool
}

// DropHover tracks an external drag hovering over the canvas.
type DropHover struct {
	Pointer timeline.Point
}

type MenuAction string

const (
	ActionEdit      MenuAction = "edit"
	ActionDuplicate MenuAction = "duplicate"
	ActionDelete    MenuAction = "delete"
	ActionAdd       MenuAction = "add"
)

type MenuItem struct {
	Action MenuAction `json:"action"`
	Label  string     `json:"label"`
}

// ContextMenu is open on an event, or on empty canvas when EventID is "".
type ContextMenu struct {
	EventID string
	At      timeline.Point
	Offset  float64
	LaneID  string
	Items   []MenuItem
}

func (m ContextMenu) Has(a MenuAction) bool {
	for _, it := range m.Items {
		if it.Action == a {
			return true
		}
	}
	return false
}

// PlaceholderPrompt blocks a drop until every token in Tokens has a value.
type PlaceholderPrompt struct {
	Template model.Template
	Text     string
	// Tokens are the placeholders the user still has to fill, in first-seen order.
	Tokens []string
	Values map[string]string
	// Context holds the tokens resolved automatically (sponsor, lane, time).
	Context map[string]string
	Offset  float64
	LaneID  string
}

// Missing lists the tokens that still have no non-blank value.
func (p PlaceholderPrompt) Missing() []string {
	var out []string
	for _, tok := range p.Tokens {
		if blank(p.Values[tok]) {
			out = append(out, tok)
		}
	}
	return out
}

func (Idle) Name() string              { return "idle" }
func (Dragging) Name() string          { return "dragging" }
func (DropHover) Name() string         { return "drop-hover" }
func (ContextMenu) Name() string       { return "context-menu" }
func (PlaceholderPrompt) Name() string { return "placeholder-prompt" }

func (Idle) state()              {}
func (Dragging) state()          {}
func (DropHover) state()         {}
func (ContextMenu) state()       {}
func (PlaceholderPrompt) state() {}

func eventMenu() []MenuItem {
	return []MenuItem{
		{Action: ActionEdit, Label: "Edit"},
		{Action: ActionDuplicate, Label: "Duplicate"},
		{Action: ActionDelete, Label: "Delete"},
	}
}

func canvasMenu() []MenuItem {
	return []MenuItem{{Action: ActionAdd, Label: "Add event here"}}
}
