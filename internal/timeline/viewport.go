package timeline

import (
	"fmt"
	"math"
	"strings"

	"cuesheet/internal/model"
)

type Orientation int

const (
	// Horizontal carries time on the x axis; lanes stack downwards.
	Horizontal Orientation = iota
	// Vertical carries time on the y axis; lanes stack left to right.
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "horizontal", "h":
		return Horizontal, nil
	case "vertical", "v":
		return Vertical, nil
	default:
		return Horizontal, fmt.Errorf("unknown orientation %q (want horizontal|vertical)", s)
	}
}

func (o Orientation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Orientation) UnmarshalText(b []byte) error {
	v, err := ParseOrientation(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

type Metrics struct {
	BasePixelsPerMinute float64 `json:"basePixelsPerMinute" toml:"base_pixels_per_minute"`
	// HeaderSize is the lane header band on the time axis.
	HeaderSize float64 `json:"headerSize" toml:"header_size"`
	// RulerSize is the ruler band on the cross axis, above/left of the lanes.
	RulerSize     float64 `json:"rulerSize" toml:"ruler_size"`
	MinEventWidth float64 `json:"minEventWidth" toml:"min_event_width"`
	// BlockInset is the gap between a lane edge and the blocks drawn in it.
	BlockInset float64 `json:"blockInset" toml:"block_inset"`
}

func DefaultMetrics() Metrics {
	return Metrics{
		BasePixelsPerMinute: 10,
		HeaderSize:          120,
		RulerSize:           32,
		MinEventWidth:       24,
		BlockInset:          6,
	}
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) Dist(q Point) float64 {
	d := p.Sub(q)
	return math.Hypot(d.X, d.Y)
}

type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Viewport is the geometry every transform reads. It is a value: mutate a copy.
type Viewport struct {
	Orientation Orientation `json:"orientation"`
	Zoom        Zoom        `json:"zoom"`
	Interval    Interval    `json:"interval"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	// Origin is the number of seconds scrolled off the start of the time axis.
	Origin  float64 `json:"origin"`
	Metrics Metrics `json:"metrics"`
}

func DefaultViewport(width, height float64) Viewport {
	return Viewport{
		Orientation: Horizontal,
		Zoom:        DefaultZoom(),
		Interval:    Interval1m,
		Width:       width,
		Height:      height,
		Metrics:     DefaultMetrics(),
	}
}

func (v Viewport) PixelsPerMinute() float64 {
	ppm := v.Metrics.BasePixelsPerMinute * v.Zoom.Clamp().Level * v.Interval.Multiplier()
	if ppm <= 0 {
		return 1
	}
	return ppm
}

func (v Viewport) OffsetToPixel(offsetSeconds float64) float64 {
	return ((offsetSeconds-v.Origin)/60)*v.PixelsPerMinute() + v.Metrics.HeaderSize
}

// PixelToOffset is the inverse of OffsetToPixel, clamped at 0.
func (v Viewport) PixelToOffset(pixel float64) float64 {
	minutes := (pixel - v.Metrics.HeaderSize) / v.PixelsPerMinute()
	return math.Max(0, v.Origin+minutes*60)
}

// TimeLength is the viewport length along the time axis.
func (v Viewport) TimeLength() float64 {
	if v.Orientation == Vertical {
		return v.Height
	}
	return v.Width
}

// CrossLength is the viewport length along the lane axis.
func (v Viewport) CrossLength() float64 {
	if v.Orientation == Vertical {
		return v.Width
	}
	return v.Height
}

func (v Viewport) TimeAxis(p Point) float64 {
	if v.Orientation == Vertical {
		return p.Y
	}
	return p.X
}

func (v Viewport) CrossAxis(p Point) float64 {
	if v.Orientation == Vertical {
		return p.X
	}
	return p.Y
}

// At builds a screen point from time-axis and cross-axis coordinates.
func (v Viewport) At(timePx, crossPx float64) Point {
	if v.Orientation == Vertical {
		return Point{X: crossPx, Y: timePx}
	}
	return Point{X: timePx, Y: crossPx}
}

// Box builds a screen rect from a time-axis span and a cross-axis span.
func (v Viewport) Box(timePx, timeLen, crossPx, crossLen float64) Rect {
	if v.Orientation == Vertical {
		return Rect{X: crossPx, Y: timePx, W: crossLen, H: timeLen}
	}
	return Rect{X: timePx, Y: crossPx, W: timeLen, H: crossLen}
}

// VisibleWindow is the [start, end] time range, in seconds, that fits past the lane header.
func (v Viewport) VisibleWindow() (float64, float64) {
	start := v.Origin
	span := math.Max(0, v.TimeLength()-v.Metrics.HeaderSize)
	return start, start + span/v.PixelsPerMinute()*60
}

func (v Viewport) Pan(seconds float64) Viewport {
	v.Origin = math.Max(0, v.Origin+seconds)
	return v
}

// LaneAtPoint resolves the lane under p using the cumulative cross-axis offsets.
func (v Viewport) LaneAtPoint(lanes *LaneSet, p Point) (Lane, bool) {
	l, _, ok := lanes.LaneAt(v.CrossAxis(p) - v.Metrics.RulerSize)
	return l, ok
}

type scaleRule struct {
	needle string
	factor float64
}

var visualScaleRules = []scaleRule{
	{needle: "sponsor", factor: 1.2},
	{needle: "permanent", factor: 0.8},
	{needle: "game", factor: 1.1},
}

// VisualScale is the per-type emphasis multiplier applied to block size.
func VisualScale(elementType string) float64 {
	t := strings.ToLower(elementType)
	for _, r := range visualScaleRules {
		if strings.Contains(t, r.needle) {
			return r.factor
		}
	}
	return 1.0
}

// BlockLength is the time-axis length of a block: scaled duration, floored at MinEventWidth.
func (v Viewport) BlockLength(durationSeconds float64, elementType string) float64 {
	raw := durationSeconds / 60 * v.PixelsPerMinute() * VisualScale(elementType)
	return math.Max(raw, v.Metrics.MinEventWidth)
}

// EventRectAt computes a block rectangle for an event placed at offset in lane.
func (v Viewport) EventRectAt(offsetSeconds, durationSeconds float64, elementType string, lanes *LaneSet, laneID string) Rect {
	lane := lanes.Resolve(laneID)
	laneStart := v.Metrics.RulerSize + lanes.Offset(lane.ID)

	base := lane.Size - 2*v.Metrics.BlockInset
	if base < 1 {
		base = lane.Size
	}
	thick := math.Min(base*VisualScale(elementType), lane.Size)
	cross := laneStart + (lane.Size-thick)/2

	return v.Box(v.OffsetToPixel(offsetSeconds), v.BlockLength(durationSeconds, elementType), cross, thick)
}

func (v Viewport) EventRect(ev model.TimelineEvent, lanes *LaneSet) Rect {
	return v.EventRectAt(ev.StartOffsetSeconds, ev.DurationSeconds, ev.ElementType, lanes, ev.LaneID)
}
