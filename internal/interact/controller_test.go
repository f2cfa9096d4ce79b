package interact

import (
	"context"
	"errors"
	"testing"

	"cuesheet/internal/model"
	"cuesheet/internal/timeline"

	"github.com/stretchr/testify/require"
)

func effectsOf[T Effect](effs []Effect) []T {
	var out []T
	for _, e := range effs {
		if t, ok := e.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

func newTestController(t *testing.T, iv timeline.Interval, events ...model.TimelineEvent) *Controller {
	t.Helper()
	v := timeline.DefaultViewport(1200, 600)
	v.Interval = iv
	c := New(timeline.DefaultLaneSet(), v, nil)
	c.SetEvents(events)
	return c
}

// laneCenter is the cross-axis pixel in the middle of a lane band.
func laneCenter(c *Controller, laneID string) float64 {
	v := c.Viewport()
	return v.Metrics.RulerSize + c.Lanes().Offset(laneID) + c.Lanes().Resolve(laneID).Size/2
}

func kickoff() model.TimelineEvent {
	return model.TimelineEvent{
		ID:                 "evt-1",
		Title:              "Kickoff",
		LaneID:             timeline.LaneGame,
		StartOffsetSeconds: 300,
		DurationSeconds:    120,
		ElementType:        "Game Event",
	}
}

func TestDropSponsorReadSnapsAndCreates(t *testing.T) {
	c := newTestController(t, timeline.Interval15m)
	v := c.Viewport()

	payload := []byte(`{"id":"tpl-1","name":"Acme Read","type":"Sponsor Read","defaultDurationSeconds":30}`)
	p := timeline.Point{X: v.OffsetToPixel(42 * 60), Y: 100}

	require.Len(t, c.DragEnter(p), 1)
	require.IsType(t, DropHover{}, c.State())

	effs := c.Drop(p, payload)
	creates := effectsOf[CreateEvent](effs)
	require.Len(t, creates, 1)
	d := creates[0].Draft
	require.Equal(t, 2700.0, d.StartOffsetSeconds)
	require.Equal(t, timeline.LaneSponsorReads, d.LaneID)
	require.Equal(t, "Acme Read", d.Title)
	require.Equal(t, 30.0, d.DurationSeconds)
	require.NotNil(t, d.TemplateID)
	require.Equal(t, "tpl-1", *d.TemplateID)
	require.IsType(t, Idle{}, c.State())
}

func TestDragCommitIssuesSingleUpdate(t *testing.T) {
	c := newTestController(t, timeline.Interval1m, kickoff())
	v := c.Viewport()

	rect := v.EventRect(kickoff(), c.Lanes())
	down := timeline.Point{X: rect.X + 5, Y: rect.Y + rect.H/2}
	require.NotEmpty(t, c.PointerDown(down))
	require.IsType(t, Dragging{}, c.State())

	release := timeline.Point{X: v.OffsetToPixel(1000), Y: laneCenter(c, timeline.LaneTalent)}
	move := c.PointerMove(release)
	require.Empty(t, effectsOf[UpdateEvent](move), "no persistence while dragging")
	d := c.State().(Dragging)
	require.True(t, d.Moved)
	require.Equal(t, 300.0, d.OriginOffset)

	in := c.RenderInput(nil, timeline.Theme{})
	require.NotNil(t, in.Drag)
	require.Equal(t, "evt-1", in.Drag.EventID)

	effs := c.PointerUp(release)
	updates := effectsOf[UpdateEvent](effs)
	require.Len(t, updates, 1)
	require.Empty(t, effectsOf[CreateEvent](effs))
	require.Empty(t, effectsOf[DeleteEvent](effs))

	u := updates[0]
	require.Equal(t, "evt-1", u.ID)
	require.Equal(t, timeline.RoundToInterval(1000, timeline.Interval1m), *u.Patch.StartOffsetSeconds)
	require.Equal(t, timeline.LaneTalent, *u.Patch.LaneID)
	require.IsType(t, Idle{}, c.State())

	// The optimistic position is what hosts render until persistence answers.
	ev, ok := c.Event("evt-1")
	require.True(t, ok)
	require.Equal(t, 1020.0, ev.StartOffsetSeconds)
	require.True(t, c.InFlight("evt-1"))
}

func TestPressWithoutTravelOnlySelects(t *testing.T) {
	c := newTestController(t, timeline.Interval1m, kickoff())
	rect := c.Viewport().EventRect(kickoff(), c.Lanes())
	p := timeline.Point{X: rect.X + 5, Y: rect.Y + 5}

	c.PointerDown(p)
	c.PointerMove(timeline.Point{X: p.X + 1, Y: p.Y + 1})
	effs := c.PointerUp(timeline.Point{X: p.X + 1, Y: p.Y + 1})

	require.Empty(t, effectsOf[UpdateEvent](effs))
	require.Equal(t, "evt-1", c.Selected())
	require.IsType(t, Idle{}, c.State())
}

func TestInFlightEventCannotBeDraggedAgain(t *testing.T) {
	c := newTestController(t, timeline.Interval1m, kickoff())
	v := c.Viewport()
	rect := v.EventRect(kickoff(), c.Lanes())

	c.PointerDown(timeline.Point{X: rect.X + 5, Y: rect.Y + 5})
	c.PointerMove(timeline.Point{X: v.OffsetToPixel(900), Y: rect.Y + 5})
	require.Len(t, effectsOf[UpdateEvent](c.PointerUp(timeline.Point{X: v.OffsetToPixel(900), Y: rect.Y + 5})), 1)

	moved, _ := c.Event("evt-1")
	r2 := v.EventRect(moved, c.Lanes())
	effs := c.PointerDown(timeline.Point{X: r2.X + 5, Y: r2.Y + 5})
	notes := effectsOf[Notify](effs)
	require.Len(t, notes, 1)
	require.Equal(t, LevelWarn, notes[0].Level)
	require.IsType(t, Idle{}, c.State())
}

func TestFailedDragCommitReverts(t *testing.T) {
	c := newTestController(t, timeline.Interval1m, kickoff())
	v := c.Viewport()
	rect := v.EventRect(kickoff(), c.Lanes())

	c.PointerDown(timeline.Point{X: rect.X + 5, Y: rect.Y + 5})
	target := timeline.Point{X: v.OffsetToPixel(1200), Y: rect.Y + 5}
	c.PointerMove(target)
	upd := effectsOf[UpdateEvent](c.PointerUp(target))[0]

	effs := c.Resolve(Outcome{Effect: upd, Err: errors.New("boom")})
	notes := effectsOf[Notify](effs)
	require.Len(t, notes, 1)
	require.Equal(t, LevelError, notes[0].Level)
	require.Contains(t, notes[0].Message, "boom")

	ev, _ := c.Event("evt-1")
	require.Equal(t, 300.0, ev.StartOffsetSeconds)
	require.False(t, c.InFlight("evt-1"))
}

func TestSuccessfulDragCommitKeepsPersistedRecord(t *testing.T) {
	c := newTestController(t, timeline.Interval1m, kickoff())
	v := c.Viewport()
	rect := v.EventRect(kickoff(), c.Lanes())

	c.PointerDown(timeline.Point{X: rect.X + 5, Y: rect.Y + 5})
	target := timeline.Point{X: v.OffsetToPixel(1200), Y: rect.Y + 5}
	c.PointerMove(target)
	upd := effectsOf[UpdateEvent](c.PointerUp(target))[0]

	saved := upd.Patch.Apply(kickoff())
	effs := c.Resolve(Outcome{Effect: upd, Event: &saved})
	notes := effectsOf[Notify](effs)
	require.Len(t, notes, 1)
	require.Equal(t, LevelInfo, notes[0].Level)

	ev, _ := c.Event("evt-1")
	require.Equal(t, 1200.0, ev.StartOffsetSeconds)

	// A reload carrying the same record leaves it in place.
	c.SetEvents([]model.TimelineEvent{saved})
	ev, _ = c.Event("evt-1")
	require.Equal(t, 1200.0, ev.StartOffsetSeconds)
}

func TestClickEmptyCanvasOpensCreateFlow(t *testing.T) {
	c := newTestController(t, timeline.Interval5m)
	v := c.Viewport()
	p := timeline.Point{X: v.OffsetToPixel(610), Y: laneCenter(c, timeline.LaneAudio)}

	require.Empty(t, c.PointerDown(p))
	effs := c.PointerUp(p)
	flows := effectsOf[OpenCreateFlow](effs)
	require.Len(t, flows, 1)
	require.InDelta(t, 610, flows[0].Offset, 1e-6)
	require.Equal(t, 600.0, flows[0].Snapped)
	require.Equal(t, timeline.LaneAudio, flows[0].LaneID)
}

func TestClickOutsideCanvasDoesNothing(t *testing.T) {
	c := newTestController(t, timeline.Interval1m)
	require.Empty(t, c.Click(timeline.Point{X: 40, Y: 100}))
	require.Empty(t, c.Click(timeline.Point{X: 400, Y: 5}))
}

func TestClickWhileMenuOpenIsSwallowed(t *testing.T) {
	c := newTestController(t, timeline.Interval1m)
	v := c.Viewport()
	p := timeline.Point{X: v.OffsetToPixel(600), Y: laneCenter(c, timeline.LaneTalent)}

	c.RightClick(p)
	menu, ok := c.State().(ContextMenu)
	require.True(t, ok)
	require.Empty(t, menu.EventID)
	require.Equal(t, []MenuItem{{Action: ActionAdd, Label: "Add event here"}}, menu.Items)

	effs := c.PointerDown(p)
	require.IsType(t, Idle{}, c.State())
	require.Empty(t, effectsOf[OpenCreateFlow](effs))
	require.Empty(t, c.PointerUp(p), "release after a menu-closing press is swallowed")

	c.RightClick(p)
	effs = c.Click(p)
	require.IsType(t, Idle{}, c.State())
	require.Empty(t, effectsOf[OpenCreateFlow](effs))
}

func TestContextMenuOnEvent(t *testing.T) {
	c := newTestController(t, timeline.Interval1m, kickoff())
	rect := c.Viewport().EventRect(kickoff(), c.Lanes())
	p := timeline.Point{X: rect.X + 5, Y: rect.Y + 5}

	c.RightClick(p)
	menu := c.State().(ContextMenu)
	require.Equal(t, "evt-1", menu.EventID)
	require.True(t, menu.Has(ActionEdit))
	require.True(t, menu.Has(ActionDuplicate))
	require.True(t, menu.Has(ActionDelete))
	require.False(t, menu.Has(ActionAdd))

	effs := c.ChooseMenu(ActionAdd)
	require.Len(t, effectsOf[Notify](effs), 1)
	require.IsType(t, ContextMenu{}, c.State())

	effs = c.ChooseMenu(ActionDuplicate)
	creates := effectsOf[CreateEvent](effs)
	require.Len(t, creates, 1)
	require.Equal(t, 420.0, creates[0].Draft.StartOffsetSeconds)
	require.Equal(t, "Kickoff", creates[0].Draft.Title)
	require.Equal(t, timeline.LaneGame, creates[0].Draft.LaneID)

	c.RightClick(p)
	edits := effectsOf[OpenEditFlow](c.ChooseMenu(ActionEdit))
	require.Equal(t, []OpenEditFlow{{EventID: "evt-1"}}, edits)
}

func TestDeleteFromMenu(t *testing.T) {
	c := newTestController(t, timeline.Interval1m, kickoff())
	rect := c.Viewport().EventRect(kickoff(), c.Lanes())
	p := timeline.Point{X: rect.X + 5, Y: rect.Y + 5}

	c.RightClick(p)
	dels := effectsOf[DeleteEvent](c.ChooseMenu(ActionDelete))
	require.Equal(t, []DeleteEvent{{ID: "evt-1"}}, dels)
	require.True(t, c.InFlight("evt-1"))

	c.Resolve(Outcome{Effect: dels[0]})
	_, ok := c.Event("evt-1")
	require.False(t, ok)
	require.Empty(t, c.Selected())
}

func TestPlaceholderPromptFlow(t *testing.T) {
	c := newTestController(t, timeline.Interval1m)
	v := c.Viewport()
	tpl := model.Template{
		ID:          "tpl-2",
		Name:        "Promo",
		Type:        "Sponsor Read",
		SponsorName: "Acme",
		Text:        "{sponsor} presents {promo} at {time} ({ promo })",
	}
	p := timeline.Point{X: v.OffsetToPixel(600), Y: 100}

	effs := c.DropTemplate(p, tpl)
	require.Empty(t, effectsOf[CreateEvent](effs))
	pp, ok := c.State().(PlaceholderPrompt)
	require.True(t, ok)
	require.Equal(t, []string{"promo"}, pp.Tokens)
	require.Equal(t, "Acme", pp.Context[TokenSponsor])

	effs = c.SubmitPrompt(map[string]string{"promo": "  "})
	require.IsType(t, PlaceholderPrompt{}, c.State())
	require.Len(t, effectsOf[Notify](effs), 1)

	effs = c.SubmitPrompt(map[string]string{"promo": "SAVE10"})
	creates := effectsOf[CreateEvent](effs)
	require.Len(t, creates, 1)
	require.Equal(t, "Acme presents SAVE10 at 10:00 (SAVE10)", creates[0].Draft.Description)
	require.Equal(t, "Acme", *creates[0].Draft.Sponsor)
	require.IsType(t, Idle{}, c.State())
}

func TestPlaceholderPromptCancel(t *testing.T) {
	c := newTestController(t, timeline.Interval1m)
	c.DropTemplate(timeline.Point{X: 300, Y: 100}, model.Template{Name: "Read", Type: "Sponsor Read", Text: "{who}"})
	require.IsType(t, PlaceholderPrompt{}, c.State())

	effs := c.CancelPrompt()
	require.Empty(t, effectsOf[CreateEvent](effs))
	require.IsType(t, Idle{}, c.State())
}

func TestMalformedDropIsDiscarded(t *testing.T) {
	c := newTestController(t, timeline.Interval1m)
	p := timeline.Point{X: 300, Y: 100}

	for _, payload := range []string{"", "{not json", `{"text":"only text"}`} {
		c.DragOver(p)
		effs := c.Drop(p, []byte(payload))
		require.Empty(t, effectsOf[CreateEvent](effs), payload)
		notes := effectsOf[Notify](effs)
		require.Len(t, notes, 1, payload)
		require.Equal(t, LevelError, notes[0].Level)
		require.IsType(t, Idle{}, c.State())
	}
}

func TestDropHoverLifecycle(t *testing.T) {
	c := newTestController(t, timeline.Interval1m)
	p := timeline.Point{X: 400, Y: 120}

	c.DragEnter(p)
	c.DragOver(timeline.Point{X: 410, Y: 120})
	require.Equal(t, DropHover{Pointer: timeline.Point{X: 410, Y: 120}}, c.State())
	require.NotNil(t, c.RenderInput(nil, timeline.Theme{}).Hover)

	c.DragLeave()
	require.IsType(t, Idle{}, c.State())
	require.Nil(t, c.RenderInput(nil, timeline.Theme{}).Hover)
}

func TestViewChangesDoNotTouchEvents(t *testing.T) {
	c := newTestController(t, timeline.Interval1m, kickoff())

	effs := c.ZoomIn()
	changed := effectsOf[ViewChanged](effs)
	require.Len(t, changed, 1)
	require.InDelta(t, 1.2, changed[0].Viewport.Zoom.Level, 1e-9)

	c.SetInterval(timeline.Interval15s)
	c.SetOrientation(timeline.Vertical)
	c.Pan(120)
	require.Equal(t, 120.0, c.Viewport().Origin)

	ev, _ := c.Event("evt-1")
	require.Equal(t, kickoff().StartOffsetSeconds, ev.StartOffsetSeconds)
}

func TestViewChangeAbandonsDrag(t *testing.T) {
	c := newTestController(t, timeline.Interval1m, kickoff())
	rect := c.Viewport().EventRect(kickoff(), c.Lanes())
	c.PointerDown(timeline.Point{X: rect.X + 5, Y: rect.Y + 5})
	require.IsType(t, Dragging{}, c.State())

	c.ZoomOut()
	require.IsType(t, Idle{}, c.State())
	require.Empty(t, effectsOf[UpdateEvent](c.PointerUp(timeline.Point{X: 900, Y: 300})))
}

func TestSetEventsDropsStaleState(t *testing.T) {
	c := newTestController(t, timeline.Interval1m, kickoff())
	rect := c.Viewport().EventRect(kickoff(), c.Lanes())
	c.RightClick(timeline.Point{X: rect.X + 5, Y: rect.Y + 5})
	require.Equal(t, "evt-1", c.Selected())

	c.SetEvents(nil)
	require.IsType(t, Idle{}, c.State())
	require.Empty(t, c.Selected())
}

type fakePersistence struct {
	created []model.EventDraft
	updated []string
	deleted []string
	err     error
}

func (f *fakePersistence) CreateEvent(_ context.Context, d model.EventDraft) (model.TimelineEvent, error) {
	if f.err != nil {
		return model.TimelineEvent{}, f.err
	}
	f.created = append(f.created, d)
	return model.TimelineEvent{ID: "evt-new", Title: d.Title, LaneID: d.LaneID, StartOffsetSeconds: d.StartOffsetSeconds, DurationSeconds: 60}, nil
}

func (f *fakePersistence) UpdateEvent(_ context.Context, id string, p model.EventPatch) (model.TimelineEvent, error) {
	if f.err != nil {
		return model.TimelineEvent{}, f.err
	}
	f.updated = append(f.updated, id)
	return p.Apply(model.TimelineEvent{ID: id, Title: "x"}), nil
}

func (f *fakePersistence) DeleteEvent(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestDispatchRoundTrip(t *testing.T) {
	c := newTestController(t, timeline.Interval1m)
	p := &fakePersistence{}

	effs := c.DropTemplate(timeline.Point{X: 300, Y: 100}, model.Template{Name: "Crowd mic", Type: "Audio"})
	var create Effect
	for _, e := range effs {
		if IsPersistence(e) {
			create = e
		}
	}
	require.NotNil(t, create)

	out := Dispatch(context.Background(), p, create)
	require.NoError(t, out.Err)
	require.NotNil(t, out.Event)
	require.Len(t, p.created, 1)

	c.Resolve(out)
	_, ok := c.Event("evt-new")
	require.True(t, ok)
	require.Equal(t, "evt-new", c.Selected())

	p.err = errors.New("offline")
	out = Dispatch(context.Background(), p, DeleteEvent{ID: "evt-new"})
	require.ErrorIs(t, out.Err, p.err)

	require.False(t, IsPersistence(Rerender{}))
	require.Error(t, Dispatch(context.Background(), nil, create).Err)
}

func TestCreateAndEditRequests(t *testing.T) {
	c := newTestController(t, timeline.Interval1m, kickoff())

	require.Len(t, effectsOf[Notify](c.Create(model.EventDraft{Title: " "})), 1)
	creates := effectsOf[CreateEvent](c.Create(model.EventDraft{Title: "Anthem", ElementType: "Audio cue", StartOffsetSeconds: -10}))
	require.Len(t, creates, 1)
	require.Equal(t, timeline.LaneAudio, creates[0].Draft.LaneID)
	require.Equal(t, 0.0, creates[0].Draft.StartOffsetSeconds)

	require.Empty(t, c.Edit("evt-1", model.EventPatch{}))
	edits := effectsOf[UpdateEvent](c.Edit("evt-1", model.EventPatch{Title: model.StringPtr("Opening kickoff")}))
	require.Len(t, edits, 1)
	require.Len(t, effectsOf[Notify](c.Edit("evt-1", model.EventPatch{Title: model.StringPtr("again")})), 1)
	require.Len(t, effectsOf[Notify](c.Edit("missing", model.EventPatch{Title: model.StringPtr("x")})), 1)
}
