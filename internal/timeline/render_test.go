package timeline

import (
	"reflect"
	"testing"

	"cuesheet/internal/model"
)

func textIndex(f Frame, s string) int {
	for i, c := range f.Commands {
		if t, ok := c.(Text); ok && t.Text == s {
			return i
		}
	}
	return -1
}

func sampleEvents() []model.TimelineEvent {
	return []model.TimelineEvent{
		{ID: "a", Title: "Kickoff", LaneID: LaneGame, StartOffsetSeconds: 600, DurationSeconds: 600, ElementType: "Game Event"},
		{ID: "b", Title: "Halftime", LaneID: LaneGame, StartOffsetSeconds: 900, DurationSeconds: 600, ElementType: "Game Event"},
		{ID: "c", Title: "Acme Read", LaneID: LaneSponsorReads, StartOffsetSeconds: 1200, DurationSeconds: 30, ElementType: "Sponsor Read"},
	}
}

func TestRenderStartsWithClearAndDrawsEveryBlock(t *testing.T) {
	t.Parallel()

	f := Render(RenderInput{Events: sampleEvents(), Viewport: DefaultViewport(1000, 500)})
	if len(f.Commands) == 0 {
		t.Fatalf("expected commands")
	}
	if _, ok := f.Commands[0].(Clear); !ok {
		t.Fatalf("first command should be Clear, got %T", f.Commands[0])
	}
	if len(f.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(f.Blocks))
	}
	if f.Blocks[0].EventID != "a" || f.Blocks[2].LaneID != LaneSponsorReads {
		t.Fatalf("blocks out of declared order: %+v", f.Blocks)
	}
	if textIndex(f, "Game Events") < 0 {
		t.Fatalf("expected lane header text")
	}
	if textIndex(f, "10:00 · 10m") < 0 {
		t.Fatalf("expected secondary offset/duration text")
	}
	if f.Preview != nil || f.Guide != nil {
		t.Fatalf("no drag or hover: preview/guide should be nil")
	}
}

func TestRenderPaintsFirstDeclaredOnTop(t *testing.T) {
	t.Parallel()

	f := Render(RenderInput{Events: sampleEvents(), Viewport: DefaultViewport(1000, 500)})
	a, b := textIndex(f, "Kickoff"), textIndex(f, "Halftime")
	if a < 0 || b < 0 {
		t.Fatalf("missing titles: a=%d b=%d", a, b)
	}
	if a < b {
		t.Fatalf("first-declared block should be painted last (a=%d b=%d)", a, b)
	}
}

func TestRenderIsPureAndDeterministic(t *testing.T) {
	t.Parallel()

	events := sampleEvents()
	before := append([]model.TimelineEvent(nil), events...)
	in := RenderInput{
		Events:   events,
		Viewport: DefaultViewport(1000, 500),
		Drag:     &DragInput{EventID: "a", Pointer: Point{X: 400, Y: 60}},
	}
	f1 := Render(in)
	f2 := Render(in)
	if !reflect.DeepEqual(f1, f2) {
		t.Fatalf("render should be deterministic")
	}
	if !reflect.DeepEqual(events, before) {
		t.Fatalf("render mutated its input events")
	}
}

func TestRenderDragPreviewUsesPointerOffset(t *testing.T) {
	t.Parallel()

	v := DefaultViewport(1000, 500)
	pointer := Point{X: v.OffsetToPixel(1000), Y: 32 + 3*48 + 10}
	f := Render(RenderInput{
		Events:   sampleEvents(),
		Viewport: v,
		Drag:     &DragInput{EventID: "a", Pointer: pointer},
	})

	for _, b := range f.Blocks {
		if b.EventID == "a" {
			t.Fatalf("dragged event should not be drawn as a regular block")
		}
	}
	if f.Preview == nil {
		t.Fatalf("expected a drag preview")
	}
	if f.Preview.LaneID != LaneTalent {
		t.Fatalf("preview lane = %q, want talent", f.Preview.LaneID)
	}
	if !approx(f.Preview.Offset, 1000) {
		t.Fatalf("preview offset = %v", f.Preview.Offset)
	}
	if f.Guide == nil || f.Guide.Offset != 1020 || f.Guide.Label != "17:00" {
		t.Fatalf("guide = %+v", f.Guide)
	}

	dashed := false
	for _, c := range f.Commands {
		if l, ok := c.(Line); ok && l.Dashed {
			dashed = true
		}
	}
	if !dashed {
		t.Fatalf("expected a dashed guide line")
	}
}

func TestRenderDropHoverTintsAndLabelsSnap(t *testing.T) {
	t.Parallel()

	v := DefaultViewport(1000, 500)
	v.Interval = Interval15m
	pointer := Point{X: v.OffsetToPixel(42 * 60), Y: 100}
	f := Render(RenderInput{Events: sampleEvents(), Viewport: v, Hover: &HoverInput{Pointer: pointer}})

	if f.Guide == nil {
		t.Fatalf("expected guide")
	}
	if f.Guide.Offset != 2700 || f.Guide.Label != "45:00" {
		t.Fatalf("guide = %+v", f.Guide)
	}
	if !approx(f.Guide.Pixel, pointer.X) {
		t.Fatalf("hover guide should sit at the hover pixel, got %v", f.Guide.Pixel)
	}

	th := DefaultTheme()
	tinted := false
	for _, c := range f.Commands {
		if fr, ok := c.(FillRect); ok && fr.Color == th.DropTint && fr.Rect.W == v.Width && fr.Rect.H == v.Height {
			tinted = true
		}
	}
	if !tinted {
		t.Fatalf("expected whole-surface tint")
	}
}

func TestRenderSkipsOffscreenEvents(t *testing.T) {
	t.Parallel()

	events := []model.TimelineEvent{{ID: "far", Title: "Far Away", LaneID: LaneGame, StartOffsetSeconds: 100000, DurationSeconds: 60}}
	f := Render(RenderInput{Events: events, Viewport: DefaultViewport(800, 500)})
	if textIndex(f, "Far Away") >= 0 {
		t.Fatalf("off-screen block should not be painted")
	}
	if len(f.Blocks) != 1 {
		t.Fatalf("blocks still record every event for hit testing")
	}
}

type recordingSurface struct {
	calls int
}

func (s *recordingSurface) Clear(string) { s.calls++ }
func (s *recordingSurface) FillRect(Rect, string, float64) { s.calls++ }
func (s *recordingSurface) StrokeRect(Rect, string, float64) { s.calls++ }
func (s *recordingSurface) Line(Point, Point, string, float64, bool) { s.calls++ }
func (s *recordingSurface) Text(Point, string, string, Font, Align) { s.calls++ }

func TestPaint(t *testing.T) {
	t.Parallel()

	f := Render(RenderInput{Events: sampleEvents(), Viewport: DefaultViewport(800, 500)})

	Paint(nil, nil, f)

	s := &recordingSurface{}
	Paint(nil, s, f)
	if s.calls != len(f.Commands) {
		t.Fatalf("painted %d of %d commands", s.calls, len(f.Commands))
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	m := MonoMeasurer{CellWidth: 10}
	cases := []struct {
		in   string
		maxW float64
		want string
	}{
		{"Hello world", 200, "Hello world"},
		{"Hello world", 50, "Hell…"},
		{"Hello world", 10, "…"},
		{"Hello world", 5, ""},
	}
	for _, tc := range cases {
		if got := Truncate(m, tc.in, FontTitle, tc.maxW); got != tc.want {
			t.Fatalf("Truncate(%q, %v) = %q, want %q", tc.in, tc.maxW, got, tc.want)
		}
	}
}

func TestTicks(t *testing.T) {
	t.Parallel()

	v := DefaultViewport(720, 400)
	ticks := Ticks(v)
	if len(ticks) != 61 {
		t.Fatalf("expected 61 ticks, got %d", len(ticks))
	}
	classes := map[float64]TickClass{0: TickMajor, 60: TickMinor, 300: TickMedium, 1800: TickMajor}
	for _, tk := range ticks {
		if want, ok := classes[tk.Offset]; ok && tk.Class != want {
			t.Fatalf("tick %v class %v, want %v", tk.Offset, tk.Class, want)
		}
		if !tk.ShowLabel {
			t.Fatalf("zoom 1 should label every minute tick, %v hidden", tk.Offset)
		}
	}

	v.Zoom.Level = 0.6
	for _, tk := range Ticks(v) {
		switch tk.Class {
		case TickMinor:
			if tk.ShowLabel {
				t.Fatalf("minor labels hidden below 0.7")
			}
		case TickMedium, TickMajor:
			if !tk.ShowLabel {
				t.Fatalf("medium/major labels shown at 0.6")
			}
		}
	}

	v.Zoom.Level = 0.3
	for _, tk := range Ticks(v) {
		if tk.Class == TickMedium && tk.ShowLabel {
			t.Fatalf("medium labels hidden below 0.5")
		}
	}

	v = DefaultViewport(720, 400)
	v.Interval = Interval15s
	for _, tk := range Ticks(v) {
		if tk.Class == TickFine && tk.ShowLabel {
			t.Fatalf("fine ticks never show labels")
		}
	}
}

func TestFormatOffsetAndDuration(t *testing.T) {
	t.Parallel()

	offsets := map[float64]string{0: "00:00", 2700: "45:00", 3725: "1:02:05", -3: "00:00", 59.6: "01:00"}
	for in, want := range offsets {
		if got := FormatOffset(in); got != want {
			t.Fatalf("FormatOffset(%v) = %q, want %q", in, got, want)
		}
	}
	durations := map[float64]string{45: "45s", 120: "2m", 150: "2m30s", 3900: "1h05m", 3930: "1h05m30s"}
	for in, want := range durations {
		if got := FormatDuration(in); got != want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderGuideLabelAlignment(t *testing.T) {
	t.Parallel()

	th := DefaultTheme()
	guideLabel := func(f Frame) (Text, bool) {
		for _, c := range f.Commands {
			if tx, ok := c.(Text); ok && tx.Color == th.Accent && tx.Text == f.Guide.Label {
				return tx, true
			}
		}
		return Text{}, false
	}

	h := DefaultViewport(1000, 500)
	h.Interval = Interval15m
	f := Render(RenderInput{Events: sampleEvents(), Viewport: h, Hover: &HoverInput{Pointer: Point{X: h.OffsetToPixel(42 * 60), Y: 100}}})
	tx, ok := guideLabel(f)
	if !ok || tx.Align != AlignCenter || !approx(tx.At.X, f.Guide.Pixel) {
		t.Fatalf("horizontal guide label = %+v (found %v), guide pixel %v", tx, ok, f.Guide.Pixel)
	}

	v := DefaultViewport(500, 1000)
	v.Orientation = Vertical
	v.Interval = Interval15m
	f = Render(RenderInput{Events: sampleEvents(), Viewport: v, Hover: &HoverInput{Pointer: Point{X: 100, Y: v.OffsetToPixel(42 * 60)}}})
	tx, ok = guideLabel(f)
	if !ok || tx.Align != AlignStart || !approx(tx.At.X, 2) {
		t.Fatalf("vertical guide label = %+v (found %v)", tx, ok)
	}
}
