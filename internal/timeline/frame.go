package timeline

import (
	"log/slog"

	"github.com/charmbracelet/x/ansi"
)

type FontWeight int

const (
	WeightNormal FontWeight = iota
	WeightBold
)

type Font struct {
	Size   float64    `json:"size"`
	Weight FontWeight `json:"weight"`
}

var (
	FontTitle     = Font{Size: 12, Weight: WeightBold}
	FontSecondary = Font{Size: 10}
	FontRuler     = Font{Size: 10}
	FontHeader    = Font{Size: 11, Weight: WeightBold}
)

type Align int

const (
	AlignStart Align = iota
	AlignCenter
)

// Command is one drawing instruction. The concrete types below form a closed set.
type Command interface{ command() }

type Clear struct {
	Color string
}

type FillRect struct {
	Rect  Rect
	Color string
	Alpha float64
}

type StrokeRect struct {
	Rect  Rect
	Color string
	Width float64
}

type Line struct {
	From   Point
	To     Point
	Color  string
	Width  float64
	Dashed bool
}

// Text is anchored at its top-left corner (or top-center with AlignCenter).
type Text struct {
	At    Point
	Text  string
	Color string
	Font  Font
	Align Align
}

func (Clear) command()      {}
func (FillRect) command()   {}
func (StrokeRect) command() {}
func (Line) command()       {}
func (Text) command()       {}

// Block is the semantic record of a drawn event rectangle.
type Block struct {
	EventID string  `json:"eventId"`
	LaneID  string  `json:"laneId"`
	Rect    Rect    `json:"rect"`
	Title   string  `json:"title"`
	Offset  float64 `json:"offset"`
}

// Guide is a dashed line at a snapped time with its label.
type Guide struct {
	Offset float64 `json:"offset"`
	Pixel  float64 `json:"pixel"`
	Label  string  `json:"label"`
}

// Frame is the full output of one render pass.
type Frame struct {
	Width    float64
	Height   float64
	Commands []Command
	Blocks   []Block
	// Preview is the live block of an active drag.
	Preview *Block
	Guide   *Guide
}

// Surface executes drawing commands on a concrete backend.
type Surface interface {
	Clear(color string)
	FillRect(r Rect, color string, alpha float64)
	StrokeRect(r Rect, color string, width float64)
	Line(from, to Point, color string, width float64, dashed bool)
	Text(at Point, text string, color string, font Font, align Align)
}

// Paint replays f onto s. A nil surface is logged and skipped.
func Paint(logger *slog.Logger, s Surface, f Frame) {
	if s == nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("render skipped: no drawing surface", "commands", len(f.Commands))
		return
	}
	for _, c := range f.Commands {
		switch c := c.(type) {
		case Clear:
			s.Clear(c.Color)
		case FillRect:
			s.FillRect(c.Rect, c.Color, c.Alpha)
		case StrokeRect:
			s.StrokeRect(c.Rect, c.Color, c.Width)
		case Line:
			s.Line(c.From, c.To, c.Color, c.Width, c.Dashed)
		case Text:
			s.Text(c.At, c.Text, c.Color, c.Font, c.Align)
		}
	}
}

// Measurer reports the rendered width of text in pixels.
type Measurer interface {
	Measure(text string, font Font) float64
}

// MonoMeasurer treats every display cell as a fixed fraction of the font size.
// CellWidth, when set, overrides the font-relative width (terminal cells).
type MonoMeasurer struct {
	CellWidth float64
}

func (m MonoMeasurer) Measure(text string, font Font) float64 {
	w := m.CellWidth
	if w <= 0 {
		w = font.Size * 0.6
	}
	return float64(ansi.StringWidth(text)) * w
}

const ellipsis = "…"

// Truncate shortens text with an ellipsis until it fits in maxW.
func Truncate(m Measurer, text string, font Font, maxW float64) string {
	if m.Measure(text, font) <= maxW {
		return text
	}
	if m.Measure(ellipsis, font) > maxW {
		return ""
	}
	r := []rune(text)
	for n := len(r) - 1; n > 0; n-- {
		s := string(r[:n]) + ellipsis
		if m.Measure(s, font) <= maxW {
			return s
		}
	}
	return ellipsis
}
