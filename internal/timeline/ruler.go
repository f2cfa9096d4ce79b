package timeline

import (
	"fmt"
	"math"
)

type TickClass int

const (
	TickFine TickClass = iota
	TickMinor
	TickMedium
	TickMajor
)

const (
	majorEvery  = 30 * 60
	mediumEvery = 5 * 60
	minorEvery  = 60

	mediumLabelZoom = 0.5
	minorLabelZoom  = 0.7

	// maxTicks bounds a ruler pass for pathological viewports.
	maxTicks = 4096
)

type Tick struct {
	Offset    float64
	Pixel     float64
	Class     TickClass
	Label     string
	ShowLabel bool
}

func classify(offset float64) TickClass {
	s := int64(math.Round(offset))
	switch {
	case s%majorEvery == 0:
		return TickMajor
	case s%mediumEvery == 0:
		return TickMedium
	case s%minorEvery == 0:
		return TickMinor
	default:
		return TickFine
	}
}

func labelVisible(c TickClass, zoom float64) bool {
	switch c {
	case TickMajor:
		return true
	case TickMedium:
		return zoom >= mediumLabelZoom
	case TickMinor:
		return zoom >= minorLabelZoom
	default:
		return false
	}
}

// Ticks lists ruler ticks at every interval unit inside the visible window.
func Ticks(v Viewport) []Tick {
	unit := v.Interval.Seconds()
	start, end := v.VisibleWindow()
	first := math.Ceil(start/unit) * unit
	zoom := v.Zoom.Clamp().Level

	var out []Tick
	for t := first; t <= end && len(out) < maxTicks; t += unit {
		c := classify(t)
		out = append(out, Tick{
			Offset:    t,
			Pixel:     v.OffsetToPixel(t),
			Class:     c,
			Label:     FormatOffset(t),
			ShowLabel: labelVisible(c, zoom),
		})
	}
	return out
}

// FormatOffset renders seconds as MM:SS, or H:MM:SS past the hour.
func FormatOffset(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	s := int64(math.Round(sec))
	h, m, ss := s/3600, (s%3600)/60, s%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, ss)
	}
	return fmt.Sprintf("%02d:%02d", m, ss)
}

// FormatDuration renders seconds compactly, e.g. 45s, 2m, 2m30s, 1h05m.
func FormatDuration(sec float64) string {
	s := int64(math.Round(sec))
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	h, m, ss := s/3600, (s%3600)/60, s%60
	switch {
	case h > 0 && ss == 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, ss)
	case ss == 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%dm%02ds", m, ss)
	}
}
