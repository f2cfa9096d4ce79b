package tui

import (
	"math"
	"strings"

	"cuesheet/internal/timeline"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
)

// opaqueFillAlpha is the alpha at which a fill hides glyphs drawn beneath it.
// Lane bands and the drop tint stay below it so grid lines show through.
const opaqueFillAlpha = 0.3

type cell struct {
	ch    rune
	fg    colorful.Color
	bg    colorful.Color
	hasFg bool
	bold  bool
	// edge marks a block border glyph that text should not overwrite.
	edge bool
	// wide marks the trailing half of a double-width rune.
	wide bool
}

// cellSurface rasterizes timeline drawing commands onto a terminal grid. Each
// cell stands for cellW x cellH canvas pixels.
type cellSurface struct {
	cols, rows   int
	cellW, cellH float64
	cells        []cell
}

func newCellSurface(cols, rows int, cellW, cellH float64) *cellSurface {
	cols, rows = max(cols, 0), max(rows, 0)
	if cellW <= 0 {
		cellW = 8
	}
	if cellH <= 0 {
		cellH = 16
	}
	s := &cellSurface{cols: cols, rows: rows, cellW: cellW, cellH: cellH, cells: make([]cell, cols*rows)}
	for i := range s.cells {
		s.cells[i].ch = ' '
	}
	return s
}

func parseColor(hex string) (colorful.Color, bool) {
	c, err := colorful.Hex(strings.TrimSpace(hex))
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

func (s *cellSurface) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= s.cols || row >= s.rows {
		return nil
	}
	return &s.cells[row*s.cols+col]
}

// span converts a pixel range to the inclusive cell range it touches.
func span(from, length, unit float64, limit int) (int, int, bool) {
	a := int(math.Floor(from / unit))
	b := int(math.Ceil((from+length)/unit)) - 1
	if b < a {
		b = a
	}
	a, b = max(a, 0), min(b, limit-1)
	return a, b, a <= b
}

func (s *cellSurface) Clear(color string) {
	bg, _ := parseColor(color)
	for i := range s.cells {
		s.cells[i] = cell{ch: ' ', bg: bg}
	}
}

func (s *cellSurface) FillRect(r timeline.Rect, color string, alpha float64) {
	c, ok := parseColor(color)
	if !ok || alpha <= 0 {
		return
	}
	c0, c1, okx := span(r.X, r.W, s.cellW, s.cols)
	r0, r1, oky := span(r.Y, r.H, s.cellH, s.rows)
	if !okx || !oky {
		return
	}
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			cl := s.at(col, row)
			if alpha >= 1 {
				cl.bg = c
			} else {
				cl.bg = cl.bg.BlendRgb(c, alpha).Clamped()
			}
			if alpha >= opaqueFillAlpha {
				*cl = cell{ch: ' ', bg: cl.bg}
			}
		}
	}
}

// StrokeRect marks the two time-axis ends of a block. Terminal rows are too
// coarse for a full frame, so only the side edges get glyphs.
func (s *cellSurface) StrokeRect(r timeline.Rect, color string, width float64) {
	c, ok := parseColor(color)
	if !ok {
		return
	}
	c0, c1, okx := span(r.X, r.W, s.cellW, s.cols)
	r0, r1, oky := span(r.Y, r.H, s.cellH, s.rows)
	if !okx || !oky {
		return
	}
	left, right := '▏', '▕'
	if width >= 2 {
		left, right = '▌', '▐'
	}
	for row := r0; row <= r1; row++ {
		for _, e := range []struct {
			col int
			ch  rune
		}{{c0, left}, {c1, right}} {
			cl := s.at(e.col, row)
			cl.ch, cl.fg, cl.hasFg, cl.edge, cl.wide = e.ch, c, true, true, false
		}
	}
}

func (s *cellSurface) Line(from, to timeline.Point, color string, _ float64, dashed bool) {
	c, ok := parseColor(color)
	if !ok {
		return
	}
	vertical := math.Abs(to.X-from.X) < math.Abs(to.Y-from.Y)
	ch := '─'
	if vertical {
		ch = '│'
	}
	if dashed {
		ch = '┄'
		if vertical {
			ch = '┆'
		}
	}

	if vertical {
		col := int(math.Floor(from.X / s.cellW))
		y0, y1 := math.Min(from.Y, to.Y), math.Max(from.Y, to.Y)
		r0, r1, ok := span(y0, y1-y0, s.cellH, s.rows)
		if !ok {
			return
		}
		for row := r0; row <= r1; row++ {
			s.glyph(col, row, ch, c, dashed)
		}
		return
	}
	row := int(math.Floor(from.Y / s.cellH))
	x0, x1 := math.Min(from.X, to.X), math.Max(from.X, to.X)
	c0, c1, okx := span(x0, x1-x0, s.cellW, s.cols)
	if !okx {
		return
	}
	for col := c0; col <= c1; col++ {
		s.glyph(col, row, ch, c, dashed)
	}
}

// glyph draws a line cell. Plain lines only fill empty cells; dashed guides
// draw over everything.
func (s *cellSurface) glyph(col, row int, ch rune, c colorful.Color, force bool) {
	cl := s.at(col, row)
	if cl == nil || cl.wide {
		return
	}
	if !force && cl.ch != ' ' {
		return
	}
	cl.ch, cl.fg, cl.hasFg, cl.bold = ch, c, true, false
}

func (s *cellSurface) Text(at timeline.Point, text string, color string, font timeline.Font, align timeline.Align) {
	c, ok := parseColor(color)
	if !ok || text == "" {
		return
	}
	row := int(math.Floor(at.Y / s.cellH))
	if row < 0 || row >= s.rows {
		return
	}
	col := int(math.Round(at.X / s.cellW))
	if align == timeline.AlignCenter {
		col -= xansi.StringWidth(text) / 2
	}
	if cl := s.at(col, row); cl != nil && cl.edge {
		col++
	}

	for _, r := range text {
		w := xansi.StringWidth(string(r))
		if w == 0 {
			continue
		}
		cl := s.at(col, row)
		if cl != nil && !cl.edge {
			if w == 2 && s.at(col+1, row) == nil {
				break
			}
			cl.ch, cl.fg, cl.hasFg, cl.bold, cl.wide = r, c, true, font.Weight == timeline.WeightBold, false
			if w == 2 {
				next := s.at(col+1, row)
				next.ch, next.wide, next.edge = 0, true, false
			}
		}
		col += w
	}
}

type cellStyle struct {
	fg, bg string
	hasFg  bool
	bold   bool
}

// Render serializes the grid row by row, one lipgloss style per run of
// identically styled cells.
func (s *cellSurface) Render() string {
	cache := map[cellStyle]lipgloss.Style{}
	styleFor := func(k cellStyle) lipgloss.Style {
		if st, ok := cache[k]; ok {
			return st
		}
		st := lipgloss.NewStyle().Background(lipgloss.Color(k.bg)).Bold(k.bold)
		if k.hasFg {
			st = st.Foreground(lipgloss.Color(k.fg))
		}
		cache[k] = st
		return st
	}

	var out strings.Builder
	for row := 0; row < s.rows; row++ {
		if row > 0 {
			out.WriteByte('\n')
		}
		var (
			run   strings.Builder
			cur   cellStyle
			first = true
		)
		flush := func() {
			if run.Len() > 0 {
				out.WriteString(styleFor(cur).Render(run.String()))
				run.Reset()
			}
		}
		for col := 0; col < s.cols; col++ {
			cl := s.cells[row*s.cols+col]
			if cl.wide {
				continue
			}
			k := cellStyle{bg: cl.bg.Hex(), hasFg: cl.hasFg, bold: cl.bold}
			if cl.hasFg {
				k.fg = cl.fg.Hex()
			}
			if first || k != cur {
				flush()
				cur, first = k, false
			}
			run.WriteRune(cl.ch)
		}
		flush()
	}
	return out.String()
}

// Plain returns the grid's glyphs without styling.
func (s *cellSurface) Plain() string {
	var out strings.Builder
	for row := 0; row < s.rows; row++ {
		if row > 0 {
			out.WriteByte('\n')
		}
		for col := 0; col < s.cols; col++ {
			cl := s.cells[row*s.cols+col]
			if cl.wide {
				continue
			}
			out.WriteRune(cl.ch)
		}
	}
	return out.String()
}
