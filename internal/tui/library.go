package tui

import (
	"fmt"
	"strings"

	"cuesheet/internal/model"
	"cuesheet/internal/timeline"

	"github.com/charmbracelet/lipgloss"
)

// library is the element panel templates are dragged from.
type library struct {
	templates []model.Template
	cursor    int
	scroll    int
	focused   bool
}

const libraryTitleRows = 1

func (l *library) set(templates []model.Template) {
	sel := ""
	if t, ok := l.selected(); ok {
		sel = t.ID
	}
	l.templates = templates
	l.cursor = 0
	for i, t := range templates {
		if t.ID == sel {
			l.cursor = i
			break
		}
	}
}

func (l library) selected() (model.Template, bool) {
	if l.cursor < 0 || l.cursor >= len(l.templates) {
		return model.Template{}, false
	}
	return l.templates[l.cursor], true
}

func (l *library) move(delta, visible int) {
	if len(l.templates) == 0 {
		return
	}
	l.cursor = max(0, min(len(l.templates)-1, l.cursor+delta))
	l.keepVisible(visible)
}

func (l *library) keepVisible(visible int) {
	if visible <= 0 {
		return
	}
	if l.cursor < l.scroll {
		l.scroll = l.cursor
	}
	if l.cursor >= l.scroll+visible {
		l.scroll = l.cursor - visible + 1
	}
}

// indexAt maps a row inside the panel to a template index.
func (l library) indexAt(row int) (int, bool) {
	i := row - libraryTitleRows + l.scroll
	if row < libraryTitleRows || i < 0 || i >= len(l.templates) {
		return -1, false
	}
	return i, true
}

func (l library) view(width, height int, lanes *timeline.LaneSet) string {
	title := styleHeader().Render("Library")
	if l.focused {
		title = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render("Library ◂")
	}
	lines := []string{title}

	visible := height - libraryTitleRows
	if len(l.templates) == 0 {
		lines = append(lines, styleMuted().Render("(no templates)"))
	}
	for i := l.scroll; i < len(l.templates) && i < l.scroll+visible; i++ {
		t := l.templates[i]
		lane := lanes.Resolve(lanes.Classify(firstNonBlank(t.Type, t.Name)))
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(lane.Color)).Render("▍")
		dur := timeline.FormatDuration(t.DefaultDurationSeconds)
		name := t.Name
		if room := width - 2 - len(dur) - 1; room > 0 && lipgloss.Width(name) > room {
			name = truncateText(name, room)
		}
		pad := max(1, width-2-lipgloss.Width(name)-len(dur))
		row := fmt.Sprintf("%s%s%s", name, strings.Repeat(" ", pad), styleMuted().Render(dur))
		if i == l.cursor && l.focused {
			row = styleSelected().Render(name + strings.Repeat(" ", pad) + dur)
		}
		lines = append(lines, swatch+" "+row)
	}
	return normalizePane(strings.Join(lines, "\n"), width, height)
}

func truncateText(s string, width int) string {
	return timeline.Truncate(timeline.MonoMeasurer{CellWidth: 1}, s, timeline.FontSecondary, float64(width))
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
