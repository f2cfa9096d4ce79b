package interact

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cuesheet/internal/model"
	"cuesheet/internal/timeline"
)

// DragThreshold is the pointer travel, in pixels, that turns a press on an
// event into a drag. Shorter press/release pairs only select.
const DragThreshold = 3.0

// Controller owns all transient interaction state for one timeline. It is not
// safe for concurrent use; hosts drive it from their UI loop and run
// persistence effects elsewhere, feeding results back through Resolve.
type Controller struct {
	lanes  *timeline.LaneSet
	view   timeline.Viewport
	logger *slog.Logger

	events []model.TimelineEvent
	// overlays are optimistic drag commits not yet confirmed by persistence.
	overlays map[string]model.EventPatch
	inflight map[string]bool

	state    State
	selected string

	// pressed is a press on empty canvas waiting for its release.
	pressed *timeline.Point
	// swallow drops the release that follows a menu-closing press.
	swallow bool
}

func New(lanes *timeline.LaneSet, view timeline.Viewport, logger *slog.Logger) *Controller {
	if lanes == nil {
		lanes = timeline.DefaultLaneSet()
	}
	if logger == nil {
		logger = slog.Default()
	}
	view.Zoom = view.Zoom.Clamp()
	return &Controller{
		lanes:    lanes,
		view:     view,
		logger:   logger,
		overlays: map[string]model.EventPatch{},
		inflight: map[string]bool{},
		state:    Idle{},
	}
}

func (c *Controller) State() State                { return c.state }
func (c *Controller) Viewport() timeline.Viewport { return c.view }
func (c *Controller) Lanes() *timeline.LaneSet    { return c.lanes }
func (c *Controller) Selected() string            { return c.selected }
func (c *Controller) InFlight(id string) bool     { return c.inflight[id] }

// Events returns the events as displayed: persisted records with any optimistic
// moves applied.
func (c *Controller) Events() []model.TimelineEvent {
	out := make([]model.TimelineEvent, len(c.events))
	for i, ev := range c.events {
		if p, ok := c.overlays[ev.ID]; ok {
			ev = p.Apply(ev)
		}
		out[i] = ev
	}
	return out
}

func (c *Controller) Event(id string) (model.TimelineEvent, bool) {
	for _, ev := range c.Events() {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.TimelineEvent{}, false
}

func (c *Controller) has(id string) bool {
	_, ok := c.Event(id)
	return ok
}

// RenderInput assembles everything the render pipeline needs for the current state.
func (c *Controller) RenderInput(m timeline.Measurer, th timeline.Theme) timeline.RenderInput {
	in := timeline.RenderInput{
		Events:   c.Events(),
		Viewport: c.view,
		Lanes:    c.lanes,
		Selected: c.selected,
		Measurer: m,
		Theme:    th,
	}
	switch s := c.state.(type) {
	case Dragging:
		if s.Moved {
			in.Drag = &timeline.DragInput{EventID: s.EventID, Pointer: s.Current}
		}
	case DropHover:
		in.Hover = &timeline.HoverInput{Pointer: s.Pointer}
	}
	return in
}

func (c *Controller) Frame(m timeline.Measurer, th timeline.Theme) timeline.Frame {
	return timeline.Render(c.RenderInput(m, th))
}

// SetEvents replaces the event list with a fresh copy from persistence and
// drops every optimistic overlay.
func (c *Controller) SetEvents(events []model.TimelineEvent) []Effect {
	c.events = append([]model.TimelineEvent(nil), events...)
	c.overlays = map[string]model.EventPatch{}

	switch s := c.state.(type) {
	case Dragging:
		if !c.has(s.EventID) {
			c.state = Idle{}
		}
	case ContextMenu:
		if s.EventID != "" && !c.has(s.EventID) {
			c.state = Idle{}
		}
	}
	if c.selected != "" && !c.has(c.selected) {
		c.selected = ""
	}
	return rerender()
}

func (c *Controller) Select(id string) []Effect {
	if id != "" && !c.has(id) {
		return nil
	}
	c.selected = id
	return rerender()
}

func (c *Controller) hit(p timeline.Point) (model.TimelineEvent, bool) {
	evs := c.Events()
	if i := timeline.HitTest(c.view, c.lanes, evs, p); i >= 0 {
		return evs[i], true
	}
	return model.TimelineEvent{}, false
}

func (c *Controller) snap(p timeline.Point) (raw, snapped float64) {
	raw = c.view.PixelToOffset(c.view.TimeAxis(p))
	return raw, timeline.RoundToInterval(raw, c.view.Interval)
}

func (c *Controller) PointerDown(p timeline.Point) []Effect {
	switch c.state.(type) {
	case ContextMenu:
		c.state = Idle{}
		c.swallow = true
		return rerender()
	case Idle:
	default:
		return nil
	}

	c.pressed = nil
	ev, ok := c.hit(p)
	if !ok {
		c.pressed = &p
		return nil
	}
	if c.inflight[ev.ID] {
		return []Effect{notify(LevelWarn, fmt.Sprintf("%q is still saving", ev.Title))}
	}
	c.selected = ev.ID
	c.state = Dragging{
		EventID:      ev.ID,
		OriginOffset: ev.StartOffsetSeconds,
		OriginLaneID: c.lanes.Resolve(ev.LaneID).ID,
		Origin:       p,
		Current:      p,
	}
	return rerender()
}

func (c *Controller) PointerMove(p timeline.Point) []Effect {
	d, ok := c.state.(Dragging)
	if !ok {
		return nil
	}
	d.Current = p
	if !d.Moved && p.Dist(d.Origin) >= DragThreshold {
		d.Moved = true
	}
	c.state = d
	if !d.Moved {
		return nil
	}
	return rerender()
}

func (c *Controller) PointerUp(p timeline.Point) []Effect {
	if c.swallow {
		c.swallow = false
		c.pressed = nil
		return nil
	}
	switch s := c.state.(type) {
	case Dragging:
		s.Current = p
		if !s.Moved && p.Dist(s.Origin) >= DragThreshold {
			s.Moved = true
		}
		c.state = Idle{}
		if !s.Moved {
			return rerender()
		}
		return c.commitDrag(s, p)
	case Idle:
		if c.pressed == nil {
			return nil
		}
		press := *c.pressed
		c.pressed = nil
		if press.Dist(p) < DragThreshold {
			return c.Click(p)
		}
	}
	return nil
}

func (c *Controller) commitDrag(d Dragging, p timeline.Point) []Effect {
	_, offset := c.snap(p)
	laneID := d.OriginLaneID
	if l, ok := c.view.LaneAtPoint(c.lanes, p); ok {
		laneID = l.ID
	}
	if offset == d.OriginOffset && laneID == d.OriginLaneID {
		return rerender()
	}

	patch := model.EventPatch{
		StartOffsetSeconds: model.Float64Ptr(offset),
		LaneID:             model.StringPtr(laneID),
	}
	c.overlays[d.EventID] = patch
	c.inflight[d.EventID] = true
	c.logger.Debug("drag commit", "event", d.EventID, "offset", offset, "lane", laneID)
	return []Effect{UpdateEvent{ID: d.EventID, Patch: patch}, Rerender{}}
}

// Click is a press and release without travel.
func (c *Controller) Click(p timeline.Point) []Effect {
	switch c.state.(type) {
	case ContextMenu:
		c.state = Idle{}
		return rerender()
	case Idle:
	default:
		return nil
	}

	if ev, ok := c.hit(p); ok {
		c.selected = ev.ID
		return rerender()
	}
	if !timeline.InCanvas(c.view, c.lanes, p) {
		if c.selected == "" {
			return nil
		}
		c.selected = ""
		return rerender()
	}
	c.selected = ""
	raw, snapped := c.snap(p)
	lane, _ := c.view.LaneAtPoint(c.lanes, p)
	return []Effect{OpenCreateFlow{Offset: raw, Snapped: snapped, LaneID: lane.ID}, Rerender{}}
}

func (c *Controller) RightClick(p timeline.Point) []Effect {
	switch c.state.(type) {
	case Dragging, PlaceholderPrompt:
		return nil
	}
	c.pressed = nil

	if ev, ok := c.hit(p); ok {
		c.selected = ev.ID
		c.state = ContextMenu{
			EventID: ev.ID,
			At:      p,
			Offset:  ev.StartOffsetSeconds,
			LaneID:  c.lanes.Resolve(ev.LaneID).ID,
			Items:   eventMenu(),
		}
		return rerender()
	}
	if timeline.InCanvas(c.view, c.lanes, p) {
		raw, _ := c.snap(p)
		lane, _ := c.view.LaneAtPoint(c.lanes, p)
		c.state = ContextMenu{At: p, Offset: raw, LaneID: lane.ID, Items: canvasMenu()}
		return rerender()
	}
	if _, idle := c.state.(Idle); idle {
		return nil
	}
	c.state = Idle{}
	return rerender()
}

func (c *Controller) CloseMenu() []Effect {
	if _, ok := c.state.(ContextMenu); !ok {
		return nil
	}
	c.state = Idle{}
	return rerender()
}

func (c *Controller) ChooseMenu(a MenuAction) []Effect {
	m, ok := c.state.(ContextMenu)
	if !ok {
		return nil
	}
	if !m.Has(a) {
		return []Effect{notify(LevelWarn, fmt.Sprintf("%s is not available here", a))}
	}
	c.state = Idle{}

	switch a {
	case ActionEdit:
		return []Effect{OpenEditFlow{EventID: m.EventID}, Rerender{}}
	case ActionDuplicate:
		ev, ok := c.Event(m.EventID)
		if !ok {
			return []Effect{notify(LevelError, "event no longer exists"), Rerender{}}
		}
		return []Effect{CreateEvent{Draft: duplicateDraft(ev)}, Rerender{}}
	case ActionDelete:
		if c.inflight[m.EventID] {
			return []Effect{notify(LevelWarn, "event is still saving"), Rerender{}}
		}
		c.inflight[m.EventID] = true
		return []Effect{DeleteEvent{ID: m.EventID}, Rerender{}}
	case ActionAdd:
		return []Effect{OpenCreateFlow{
			Offset:  m.Offset,
			Snapped: timeline.RoundToInterval(m.Offset, c.view.Interval),
			LaneID:  m.LaneID,
		}, Rerender{}}
	}
	return rerender()
}

func duplicateDraft(ev model.TimelineEvent) model.EventDraft {
	return model.EventDraft{
		Title:              ev.Title,
		Description:        ev.Description,
		LaneID:             ev.LaneID,
		StartOffsetSeconds: ev.EndOffsetSeconds(),
		DurationSeconds:    ev.DurationSeconds,
		ElementType:        ev.ElementType,
		Sponsor:            ev.Sponsor,
		TemplateID:         ev.TemplateID,
	}
}

// Create requests a new event from a host form.
func (c *Controller) Create(d model.EventDraft) []Effect {
	if blank(d.Title) {
		return []Effect{notify(LevelWarn, "title is required")}
	}
	if d.LaneID == "" {
		d.LaneID = c.lanes.Classify(d.ElementType)
	}
	if d.StartOffsetSeconds < 0 {
		d.StartOffsetSeconds = 0
	}
	return []Effect{CreateEvent{Draft: d}}
}

// Edit requests a field update from a host form. Unlike a drag it is not
// applied optimistically.
func (c *Controller) Edit(id string, patch model.EventPatch) []Effect {
	if patch.Empty() {
		return nil
	}
	if c.inflight[id] {
		return []Effect{notify(LevelWarn, "event is still saving")}
	}
	if !c.has(id) {
		return []Effect{notify(LevelError, fmt.Sprintf("event %s not found", id))}
	}
	c.inflight[id] = true
	return []Effect{UpdateEvent{ID: id, Patch: patch}}
}

func (c *Controller) DragEnter(p timeline.Point) []Effect { return c.DragOver(p) }

func (c *Controller) DragOver(p timeline.Point) []Effect {
	switch c.state.(type) {
	case Idle, DropHover:
		c.state = DropHover{Pointer: p}
		return rerender()
	}
	return nil
}

func (c *Controller) DragLeave() []Effect {
	if _, ok := c.state.(DropHover); !ok {
		return nil
	}
	c.state = Idle{}
	return rerender()
}

// ParseTemplate decodes a dropped element payload.
func ParseTemplate(payload []byte) (model.Template, error) {
	var tpl model.Template
	if len(strings.TrimSpace(string(payload))) == 0 {
		return tpl, errors.New("empty drop payload")
	}
	if err := json.Unmarshal(payload, &tpl); err != nil {
		return tpl, fmt.Errorf("malformed drop payload: %w", err)
	}
	if blank(tpl.Name) && blank(tpl.Type) {
		return tpl, errors.New("drop payload has neither name nor type")
	}
	return tpl, nil
}

// Drop handles an external drop with a raw payload. Malformed payloads are
// reported and discarded.
func (c *Controller) Drop(p timeline.Point, payload []byte) []Effect {
	switch c.state.(type) {
	case Dragging, PlaceholderPrompt:
		return []Effect{notify(LevelWarn, "finish the current action before dropping")}
	}
	c.state = Idle{}

	tpl, err := ParseTemplate(payload)
	if err != nil {
		c.logger.Warn("drop discarded", "err", err)
		return []Effect{notify(LevelError, "Drop ignored: "+err.Error()), Rerender{}}
	}
	return c.dropTemplate(p, tpl)
}

// DropTemplate handles a drop from a host that already holds a decoded template.
func (c *Controller) DropTemplate(p timeline.Point, tpl model.Template) []Effect {
	switch c.state.(type) {
	case Dragging, PlaceholderPrompt:
		return []Effect{notify(LevelWarn, "finish the current action before dropping")}
	}
	c.state = Idle{}
	return c.dropTemplate(p, tpl)
}

func (c *Controller) dropTemplate(p timeline.Point, tpl model.Template) []Effect {
	_, offset := c.snap(p)
	laneID := TemplateLane(c.lanes, tpl)
	ctxVals := contextValues(tpl, c.lanes.Resolve(laneID), offset)

	var missing []string
	for _, tok := range Placeholders(tpl.Text) {
		if _, ok := ctxVals[tok]; !ok {
			missing = append(missing, tok)
		}
	}
	if len(missing) > 0 {
		c.state = PlaceholderPrompt{
			Template: tpl,
			Text:     tpl.Text,
			Tokens:   missing,
			Values:   map[string]string{},
			Context:  ctxVals,
			Offset:   offset,
			LaneID:   laneID,
		}
		return rerender()
	}

	c.logger.Debug("drop create", "template", tpl.ID, "offset", offset, "lane", laneID)
	draft := draftFromTemplate(tpl, Substitute(tpl.Text, ctxVals), offset, laneID)
	return []Effect{CreateEvent{Draft: draft}, Rerender{}}
}

func draftFromTemplate(tpl model.Template, text string, offset float64, laneID string) model.EventDraft {
	title := strings.TrimSpace(tpl.Name)
	if title == "" {
		title = strings.TrimSpace(tpl.Type)
	}
	desc := text
	if blank(desc) {
		desc = tpl.Description
	}
	d := model.EventDraft{
		Title:              title,
		Description:        desc,
		LaneID:             laneID,
		StartOffsetSeconds: offset,
		DurationSeconds:    tpl.DefaultDurationSeconds,
		ElementType:        tpl.Type,
	}
	if s := strings.TrimSpace(tpl.SponsorName); s != "" {
		d.Sponsor = model.StringPtr(s)
	}
	if tpl.ID != "" {
		d.TemplateID = model.StringPtr(tpl.ID)
	}
	return d
}

// SubmitPrompt merges values into the open prompt. When every token has a
// non-blank value the event is created; otherwise the prompt stays open.
func (c *Controller) SubmitPrompt(values map[string]string) []Effect {
	pp, ok := c.state.(PlaceholderPrompt)
	if !ok {
		return nil
	}
	merged := make(map[string]string, len(pp.Tokens))
	for k, v := range pp.Values {
		merged[k] = v
	}
	for _, tok := range pp.Tokens {
		if v, ok := values[tok]; ok {
			merged[tok] = v
		}
	}
	pp.Values = merged

	if missing := pp.Missing(); len(missing) > 0 {
		c.state = pp
		return []Effect{notify(LevelWarn, "Fill in: "+strings.Join(missing, ", ")), Rerender{}}
	}

	c.state = Idle{}
	text := Substitute(pp.Text, merge(pp.Context, pp.Values))
	return []Effect{CreateEvent{Draft: draftFromTemplate(pp.Template, text, pp.Offset, pp.LaneID)}, Rerender{}}
}

func (c *Controller) CancelPrompt() []Effect {
	if _, ok := c.state.(PlaceholderPrompt); !ok {
		return nil
	}
	c.state = Idle{}
	return rerender()
}

// Escape backs out of whatever transient state is active without committing.
func (c *Controller) Escape() []Effect {
	if _, idle := c.state.(Idle); idle {
		return nil
	}
	c.state = Idle{}
	c.pressed = nil
	return rerender()
}

func (c *Controller) viewChanged() []Effect {
	// Geometry changed under the pointer; an active drag is abandoned uncommitted.
	if _, ok := c.state.(Dragging); ok {
		c.state = Idle{}
	}
	return []Effect{ViewChanged{Viewport: c.view}, Rerender{}}
}

func (c *Controller) ZoomIn() []Effect {
	c.view.Zoom = c.view.Zoom.In()
	return c.viewChanged()
}

func (c *Controller) ZoomOut() []Effect {
	c.view.Zoom = c.view.Zoom.Out()
	return c.viewChanged()
}

func (c *Controller) SetInterval(iv timeline.Interval) []Effect {
	c.view.Interval = iv
	return c.viewChanged()
}

func (c *Controller) SetOrientation(o timeline.Orientation) []Effect {
	c.view.Orientation = o
	return c.viewChanged()
}

func (c *Controller) Pan(seconds float64) []Effect {
	c.view = c.view.Pan(seconds)
	return c.viewChanged()
}

// Resize updates the surface size. Size is not part of the persisted view.
func (c *Controller) Resize(width, height float64) []Effect {
	c.view.Width, c.view.Height = width, height
	return rerender()
}

// SetViewport restores a saved view; width and height are kept.
func (c *Controller) SetViewport(v timeline.Viewport) {
	v.Width, v.Height = c.view.Width, c.view.Height
	v.Zoom = v.Zoom.Clamp()
	c.view = v
}

// Resolve folds a dispatched effect's outcome back into local state.
func (c *Controller) Resolve(o Outcome) []Effect {
	switch e := o.Effect.(type) {
	case UpdateEvent:
		delete(c.inflight, e.ID)
		delete(c.overlays, e.ID)
		if o.Err != nil {
			c.logger.Warn("update failed", "event", e.ID, "err", o.Err)
			return []Effect{notify(LevelError, "Save failed: "+o.Err.Error()), Rerender{}}
		}
		updated := c.replace(e.ID, func(ev model.TimelineEvent) model.TimelineEvent {
			if o.Event != nil {
				return *o.Event
			}
			return e.Patch.Apply(ev)
		})
		lane := c.lanes.Resolve(updated.LaneID)
		msg := fmt.Sprintf("Saved %q at %s · %s", updated.Title, timeline.FormatOffset(updated.StartOffsetSeconds), lane.Name)
		return []Effect{notify(LevelInfo, msg), Rerender{}}

	case CreateEvent:
		if o.Err != nil {
			c.logger.Warn("create failed", "title", e.Draft.Title, "err", o.Err)
			return []Effect{notify(LevelError, "Create failed: "+o.Err.Error()), Rerender{}}
		}
		title := e.Draft.Title
		if o.Event != nil {
			title = o.Event.Title
			c.replace(o.Event.ID, func(model.TimelineEvent) model.TimelineEvent { return *o.Event })
			if !c.has(o.Event.ID) {
				c.events = append(c.events, *o.Event)
			}
			c.selected = o.Event.ID
		}
		return []Effect{notify(LevelInfo, fmt.Sprintf("Created %q", title)), Rerender{}}

	case DeleteEvent:
		delete(c.inflight, e.ID)
		if o.Err != nil {
			c.logger.Warn("delete failed", "event", e.ID, "err", o.Err)
			return []Effect{notify(LevelError, "Delete failed: "+o.Err.Error()), Rerender{}}
		}
		title := e.ID
		kept := c.events[:0:0]
		for _, ev := range c.events {
			if ev.ID == e.ID {
				title = ev.Title
				continue
			}
			kept = append(kept, ev)
		}
		c.events = kept
		delete(c.overlays, e.ID)
		if c.selected == e.ID {
			c.selected = ""
		}
		return []Effect{notify(LevelInfo, fmt.Sprintf("Deleted %q", title)), Rerender{}}
	}
	return nil
}

// replace swaps the stored record for id and returns the displayed result.
func (c *Controller) replace(id string, fn func(model.TimelineEvent) model.TimelineEvent) model.TimelineEvent {
	for i, ev := range c.events {
		if ev.ID == id {
			c.events[i] = fn(ev)
			break
		}
	}
	ev, _ := c.Event(id)
	return ev
}
