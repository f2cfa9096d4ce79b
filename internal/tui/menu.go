package tui

import (
	"strings"

	"cuesheet/internal/interact"

	"github.com/charmbracelet/lipgloss"
)

// menuBox renders the context menu items with the cursor row highlighted.
func menuBox(items []interact.MenuItem, cursor int) string {
	w := 0
	for _, it := range items {
		w = max(w, lipgloss.Width(it.Label))
	}
	rows := make([]string, 0, len(items))
	for i, it := range items {
		label := it.Label + strings.Repeat(" ", w-lipgloss.Width(it.Label))
		if i == cursor {
			rows = append(rows, styleSelected().Render(" "+label+" "))
			continue
		}
		rows = append(rows, " "+label+" ")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		Background(colorSurfaceBg).
		Foreground(colorSurfaceFg).
		Render(strings.Join(rows, "\n"))
}

// menuRect places the menu at its anchor cell, pulled back on screen.
func (m appModel) menuRect(cm interact.ContextMenu) (x, y, w, h int) {
	box := menuBox(cm.Items, m.menuCursor)
	w, h = lipgloss.Width(box), lipgloss.Height(box)
	x = m.geo.canvasX + int(cm.At.X/m.cellW)
	y = m.geo.canvasY + int(cm.At.Y/m.cellH)
	x = max(0, min(x, m.width-w))
	y = max(0, min(y, m.height-h))
	return x, y, w, h
}

// menuItemAt maps a screen cell to a menu item index.
func (m appModel) menuItemAt(cm interact.ContextMenu, col, row int) (int, bool) {
	x, y, w, h := m.menuRect(cm)
	if col < x || col >= x+w || row <= y || row >= y+h-1 {
		return -1, false
	}
	i := row - y - 1
	return i, i >= 0 && i < len(cm.Items)
}
