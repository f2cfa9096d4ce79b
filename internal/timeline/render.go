package timeline

import (
	"math"

	"cuesheet/internal/model"
)

type Theme struct {
	Background string
	RulerBg    string
	HeaderBg   string
	TickMajor  string
	TickMinor  string
	Grid       string
	Text       string
	TextMuted  string
	Accent     string
	DropTint   string
}

func DefaultTheme() Theme {
	return Theme{
		Background: "#0d1117",
		RulerBg:    "#161b22",
		HeaderBg:   "#161b22",
		TickMajor:  "#c9d1d9",
		TickMinor:  "#484f58",
		Grid:       "#21262d",
		Text:       "#e6edf3",
		TextMuted:  "#8b949e",
		Accent:     "#f0f6fc",
		DropTint:   "#1f6feb",
	}
}

const (
	bandAlpha     = 0.08
	blockAlpha    = 0.35
	selectedAlpha = 0.55
	dragAlpha     = 0.7
	dropTintAlpha = 0.12
	textPad       = 4
)

type DragInput struct {
	EventID string
	Pointer Point
}

type HoverInput struct {
	Pointer Point
}

type RenderInput struct {
	Events   []model.TimelineEvent
	Viewport Viewport
	Lanes    *LaneSet
	Drag     *DragInput
	Hover    *HoverInput
	Selected string
	Measurer Measurer
	Theme    Theme
}

// Render is a pure function of its input: it never mutates events or state and
// returns the same frame for the same input.
func Render(in RenderInput) Frame {
	v := in.Viewport
	if in.Lanes == nil {
		in.Lanes = DefaultLaneSet()
	}
	if in.Measurer == nil {
		in.Measurer = MonoMeasurer{}
	}
	if in.Theme == (Theme{}) {
		in.Theme = DefaultTheme()
	}
	r := renderer{in: in, v: v, th: in.Theme, f: Frame{Width: v.Width, Height: v.Height}}

	r.background()
	r.ruler()
	r.lanes()
	r.events()
	if in.Drag != nil {
		r.drag(*in.Drag)
	}
	if in.Hover != nil {
		r.dropHover(*in.Hover)
	}
	return r.f
}

type renderer struct {
	in RenderInput
	v  Viewport
	th Theme
	f  Frame
}

func (r *renderer) add(c Command) { r.f.Commands = append(r.f.Commands, c) }

func (r *renderer) background() {
	r.add(Clear{Color: r.th.Background})
	r.add(FillRect{Rect: Rect{W: r.v.Width, H: r.v.Height}, Color: r.th.Background, Alpha: 1})
}

func (r *renderer) ruler() {
	v := r.v
	m := v.Metrics
	r.add(FillRect{Rect: v.Box(0, v.TimeLength(), 0, m.RulerSize), Color: r.th.RulerBg, Alpha: 1})

	laneEnd := m.RulerSize + r.in.Lanes.Extent()
	for _, t := range Ticks(v) {
		if t.Pixel < m.HeaderSize || t.Pixel > v.TimeLength() {
			continue
		}
		var frac float64
		color := r.th.TickMinor
		switch t.Class {
		case TickMajor:
			frac, color = 1, r.th.TickMajor
		case TickMedium:
			frac = 0.6
		case TickMinor:
			frac = 0.4
		default:
			frac = 0.2
		}
		r.add(Line{
			From:  v.At(t.Pixel, m.RulerSize*(1-frac)),
			To:    v.At(t.Pixel, m.RulerSize),
			Color: color,
			Width: 1,
		})
		if t.Class >= TickMedium {
			r.add(Line{From: v.At(t.Pixel, m.RulerSize), To: v.At(t.Pixel, laneEnd), Color: r.th.Grid, Width: 1})
		}
		if t.ShowLabel {
			r.add(Text{At: v.At(t.Pixel+3, 2), Text: t.Label, Color: r.th.TextMuted, Font: FontRuler})
		}
	}
}

func (r *renderer) lanes() {
	v := r.v
	m := v.Metrics
	r.add(FillRect{Rect: v.Box(0, m.HeaderSize, 0, m.RulerSize), Color: r.th.HeaderBg, Alpha: 1})

	acc := m.RulerSize
	for _, l := range r.in.Lanes.Lanes() {
		band := v.Box(m.HeaderSize, math.Max(0, v.TimeLength()-m.HeaderSize), acc, l.Size)
		r.add(FillRect{Rect: band, Color: l.Color, Alpha: bandAlpha})

		header := v.Box(0, m.HeaderSize, acc, l.Size)
		r.add(FillRect{Rect: header, Color: r.th.HeaderBg, Alpha: 1})
		r.add(FillRect{Rect: v.Box(0, 4, acc, l.Size), Color: l.Color, Alpha: 1})

		textW := m.HeaderSize - 2*textPad - 4
		if v.Orientation == Vertical {
			textW = l.Size - 2*textPad - 4
		}
		name := Truncate(r.in.Measurer, l.Name, FontHeader, textW)
		r.add(Text{At: v.At(textPad+6, acc+textPad), Text: name, Color: r.th.Text, Font: FontHeader})

		acc += l.Size
		r.add(Line{From: v.At(0, acc), To: v.At(v.TimeLength(), acc), Color: r.th.Grid, Width: 1})
	}
}

func (r *renderer) visible(rect Rect) bool {
	start := r.v.TimeAxis(Point{X: rect.X, Y: rect.Y})
	length := rect.W
	if r.v.Orientation == Vertical {
		length = rect.H
	}
	return start+length >= r.v.Metrics.HeaderSize && start <= r.v.TimeLength()
}

func (r *renderer) events() {
	dragging := ""
	if r.in.Drag != nil {
		dragging = r.in.Drag.EventID
	}

	blocks := make([]Block, 0, len(r.in.Events))
	for _, ev := range r.in.Events {
		if ev.ID == dragging {
			continue
		}
		blocks = append(blocks, Block{
			EventID: ev.ID,
			LaneID:  r.in.Lanes.Resolve(ev.LaneID).ID,
			Rect:    r.v.EventRect(ev, r.in.Lanes),
			Title:   ev.Title,
			Offset:  ev.StartOffsetSeconds,
		})
	}
	r.f.Blocks = blocks

	// Paint back to front so the earliest-declared block ends on top, matching hit testing.
	byID := make(map[string]model.TimelineEvent, len(r.in.Events))
	for _, ev := range r.in.Events {
		byID[ev.ID] = ev
	}
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if !r.visible(b.Rect) {
			continue
		}
		ev := byID[b.EventID]
		alpha := blockAlpha
		if ev.ID == r.in.Selected {
			alpha = selectedAlpha
		}
		r.block(ev, b.Rect, alpha, 1, r.in.Lanes.Resolve(ev.LaneID).Color)
	}
}

func (r *renderer) block(ev model.TimelineEvent, rect Rect, alpha, stroke float64, color string) {
	lane := r.in.Lanes.Resolve(ev.LaneID)
	r.add(FillRect{Rect: rect, Color: lane.Color, Alpha: alpha})
	r.add(StrokeRect{Rect: rect, Color: color, Width: stroke})

	textW := rect.W - 2*textPad
	if textW <= 0 {
		return
	}
	title := Truncate(r.in.Measurer, ev.Title, FontTitle, textW)
	if title != "" {
		r.add(Text{At: Point{X: rect.X + textPad, Y: rect.Y + 3}, Text: title, Color: r.th.Text, Font: FontTitle})
	}
	if rect.H >= 3+FontTitle.Size+4+FontSecondary.Size {
		meta := FormatOffset(ev.StartOffsetSeconds) + " · " + FormatDuration(ev.DurationSeconds)
		meta = Truncate(r.in.Measurer, meta, FontSecondary, textW)
		if meta != "" {
			r.add(Text{At: Point{X: rect.X + textPad, Y: rect.Y + 3 + FontTitle.Size + 4}, Text: meta, Color: r.th.TextMuted, Font: FontSecondary})
		}
	}
}

func (r *renderer) guideLine(pixel float64, label string) {
	v := r.v
	m := v.Metrics
	end := m.RulerSize + r.in.Lanes.Extent()
	r.add(Line{From: v.At(pixel, 0), To: v.At(pixel, end), Color: r.th.Accent, Width: 1, Dashed: true})
	// Centered over the line when the ruler runs across the top.
	at, align := v.At(pixel+3, 2), AlignStart
	if v.Orientation == Horizontal {
		at, align = v.At(pixel, 2), AlignCenter
	}
	r.add(Text{At: at, Text: label, Color: r.th.Accent, Font: FontRuler, Align: align})
}

func (r *renderer) drag(d DragInput) {
	v := r.v
	var ev model.TimelineEvent
	found := false
	for _, e := range r.in.Events {
		if e.ID == d.EventID {
			ev, found = e, true
			break
		}
	}
	if !found {
		return
	}

	live := v.PixelToOffset(v.TimeAxis(d.Pointer))
	laneID := ev.LaneID
	if l, ok := v.LaneAtPoint(r.in.Lanes, d.Pointer); ok {
		laneID = l.ID
	}
	moved := ev
	moved.StartOffsetSeconds = live
	moved.LaneID = laneID
	rect := v.EventRect(moved, r.in.Lanes)
	r.block(moved, rect, dragAlpha, 2, r.th.Accent)
	r.f.Preview = &Block{EventID: ev.ID, LaneID: laneID, Rect: rect, Title: ev.Title, Offset: live}

	snapped := RoundToInterval(live, v.Interval)
	px := v.OffsetToPixel(snapped)
	r.guideLine(px, FormatOffset(snapped))
	r.f.Guide = &Guide{Offset: snapped, Pixel: px, Label: FormatOffset(snapped)}
}

func (r *renderer) dropHover(h HoverInput) {
	v := r.v
	r.add(FillRect{Rect: Rect{W: v.Width, H: v.Height}, Color: r.th.DropTint, Alpha: dropTintAlpha})

	px := v.TimeAxis(h.Pointer)
	snapped := RoundToInterval(v.PixelToOffset(px), v.Interval)
	r.guideLine(px, FormatOffset(snapped))
	r.f.Guide = &Guide{Offset: snapped, Pixel: px, Label: FormatOffset(snapped)}
}
