package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const (
	headerRows = 1
	statusRows = 1
	detailRows = 4
)

// normalizePane forces s to exactly width columns (ANSI-aware) and height lines.
func normalizePane(s string, width, height int) string {
	width, height = max(width, 0), max(height, 0)

	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i, ln := range lines {
		// Bound the width computation on pathological lines.
		if width > 0 && len(ln) > 8192 {
			ln = xansi.Cut(ln, 0, width)
		}
		w := xansi.StringWidth(ln)
		if w > width {
			switch {
			case width <= 0:
				ln = ""
			case width == 1:
				ln = xansi.Cut(ln, 0, 1)
			default:
				ln = xansi.Cut(ln, 0, width-1) + "…"
			}
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

// overlay draws box over base with its top-left corner at (x, y), clamped so
// the box stays on screen.
func overlay(base, box string, x, y int) string {
	baseLines := strings.Split(base, "\n")
	boxLines := strings.Split(box, "\n")
	bw := lipgloss.Width(box)
	width := 0
	for _, ln := range baseLines {
		width = max(width, xansi.StringWidth(ln))
	}

	x = max(0, min(x, width-bw))
	y = max(0, min(y, len(baseLines)-len(boxLines)))
	for i, bl := range boxLines {
		row := y + i
		if row >= len(baseLines) {
			break
		}
		ln := baseLines[row]
		left := xansi.Cut(ln, 0, x)
		if pad := x - xansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		right := xansi.Cut(ln, x+bw, width)
		baseLines[row] = left + bl + right
	}
	return strings.Join(baseLines, "\n")
}

// geometry is the screen split for one frame: a header row, the library
// column beside the canvas, a detail strip and the status line.
type geometry struct {
	width, height int
	libWidth      int
	canvasX       int
	canvasY       int
	canvasCols    int
	canvasRows    int
	detailY       int
}

func layoutFor(width, height, libWidth int) geometry {
	g := geometry{width: width, height: height}
	g.libWidth = max(0, min(libWidth, width/3))
	g.canvasX = g.libWidth
	if g.libWidth > 0 {
		g.canvasX++ // separator
	}
	g.canvasY = headerRows
	g.canvasCols = max(0, width-g.canvasX)
	g.canvasRows = max(0, height-headerRows-detailRows-statusRows)
	g.detailY = g.canvasY + g.canvasRows
	return g
}

func (g geometry) inCanvas(col, row int) bool {
	return col >= g.canvasX && col < g.canvasX+g.canvasCols &&
		row >= g.canvasY && row < g.canvasY+g.canvasRows
}

func (g geometry) inLibrary(col, row int) bool {
	return col >= 0 && col < g.libWidth && row >= g.canvasY && row < g.canvasY+g.canvasRows
}
