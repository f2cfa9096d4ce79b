// Package svgsurface rasterizes timeline frames to standalone SVG documents.
package svgsurface

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"cuesheet/internal/timeline"
)

const fontFamily = "ui-sans-serif, system-ui, sans-serif"

// Surface accumulates SVG elements. It implements timeline.Surface.
type Surface struct {
	width, height float64
	body          strings.Builder
	background    string
}

func New(width, height float64) *Surface {
	return &Surface{width: width, height: height}
}

// Render paints f onto a new surface and returns the document.
func Render(logger *slog.Logger, f timeline.Frame) string {
	s := New(f.Width, f.Height)
	timeline.Paint(logger, s, f)
	return s.String()
}

func (s *Surface) Clear(color string) {
	s.body.Reset()
	s.background = color
}

func (s *Surface) FillRect(r timeline.Rect, color string, alpha float64) {
	if r.Empty() {
		return
	}
	fmt.Fprintf(&s.body, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"%s/>`,
		num(r.X), num(r.Y), num(r.W), num(r.H), attr(color), opacity("fill-opacity", alpha))
	s.body.WriteByte('\n')
}

func (s *Surface) StrokeRect(r timeline.Rect, color string, width float64) {
	if r.Empty() {
		return
	}
	fmt.Fprintf(&s.body, `<rect x="%s" y="%s" width="%s" height="%s" fill="none" stroke="%s" stroke-width="%s"/>`,
		num(r.X), num(r.Y), num(r.W), num(r.H), attr(color), num(width))
	s.body.WriteByte('\n')
}

func (s *Surface) Line(from, to timeline.Point, color string, width float64, dashed bool) {
	dash := ""
	if dashed {
		dash = ` stroke-dasharray="4 3"`
	}
	fmt.Fprintf(&s.body, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"%s/>`,
		num(from.X), num(from.Y), num(to.X), num(to.Y), attr(color), num(width), dash)
	s.body.WriteByte('\n')
}

func (s *Surface) Text(at timeline.Point, text string, color string, font timeline.Font, align timeline.Align) {
	if text == "" {
		return
	}
	anchor := "start"
	if align == timeline.AlignCenter {
		anchor = "middle"
	}
	weight := "normal"
	if font.Weight == timeline.WeightBold {
		weight = "bold"
	}
	fmt.Fprintf(&s.body, `<text x="%s" y="%s" fill="%s" font-family="%s" font-size="%s" font-weight="%s" text-anchor="%s" dominant-baseline="hanging">%s</text>`,
		num(at.X), num(at.Y), attr(color), fontFamily, num(font.Size), weight, anchor, escape(text))
	s.body.WriteByte('\n')
}

// String returns the complete SVG document.
func (s *Surface) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		num(s.width), num(s.height), num(s.width), num(s.height))
	b.WriteByte('\n')
	if s.background != "" {
		fmt.Fprintf(&b, `<rect width="100%%" height="100%%" fill="%s"/>`, attr(s.background))
		b.WriteByte('\n')
	}
	b.WriteString(s.body.String())
	b.WriteString("</svg>\n")
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func opacity(name string, alpha float64) string {
	if alpha <= 0 || alpha >= 1 {
		return ""
	}
	return fmt.Sprintf(` %s="%s"`, name, strconv.FormatFloat(alpha, 'f', 2, 64))
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func attr(s string) string {
	return strings.NewReplacer(`"`, "&quot;", "<", "&lt;", "&", "&amp;").Replace(s)
}
