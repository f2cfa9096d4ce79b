package tui

import (
	"cuesheet/internal/interact"
	"cuesheet/internal/timeline"

	tea "github.com/charmbracelet/bubbletea"
)

// canvasPoint maps a terminal cell to the canvas pixel at its center. Cells
// outside the canvas are clamped to its edge so drags keep tracking.
func (m appModel) canvasPoint(col, row int) timeline.Point {
	g := m.geo
	c := max(0, min(col-g.canvasX, g.canvasCols-1))
	r := max(0, min(row-g.canvasY, g.canvasRows-1))
	return timeline.Point{X: (float64(c) + 0.5) * m.cellW, Y: (float64(r) + 0.5) * m.cellH}
}

func (m *appModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.form != nil || m.showHelp {
		return nil
	}
	col, row := msg.X, msg.Y
	inCanvas := m.geo.inCanvas(col, row)
	p := m.canvasPoint(col, row)

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		if !inCanvas || msg.Action != tea.MouseActionPress {
			return nil
		}
		back := msg.Button == tea.MouseButtonWheelUp
		if msg.Ctrl {
			if back {
				return m.run(m.ctrl.ZoomIn())
			}
			return m.run(m.ctrl.ZoomOut())
		}
		step := m.ctrl.Viewport().Interval.Seconds()
		if back {
			step = -step
		}
		return m.run(m.ctrl.Pan(step))
	}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			return m.press(col, row, p, inCanvas)
		case tea.MouseButtonRight:
			if inCanvas {
				m.lib.focused = false
				return m.run(m.ctrl.RightClick(p))
			}
		}

	case tea.MouseActionMotion:
		if m.drag != nil {
			switch {
			case inCanvas:
				m.drag.over = true
				return m.run(m.ctrl.DragOver(p))
			case m.drag.over:
				m.drag.over = false
				return m.run(m.ctrl.DragLeave())
			}
			return nil
		}
		return m.run(m.ctrl.PointerMove(p))

	case tea.MouseActionRelease:
		if d := m.drag; d != nil {
			m.drag = nil
			if inCanvas {
				return m.run(m.ctrl.DropTemplate(p, d.tpl))
			}
			if d.over {
				return m.run(m.ctrl.DragLeave())
			}
			return nil
		}
		return m.run(m.ctrl.PointerUp(p))
	}
	return nil
}

func (m *appModel) press(col, row int, p timeline.Point, inCanvas bool) tea.Cmd {
	if cm, ok := m.ctrl.State().(interact.ContextMenu); ok {
		if i, hit := m.menuItemAt(cm, col, row); hit {
			m.menuCursor = i
			return m.run(m.ctrl.ChooseMenu(cm.Items[i].Action))
		}
		if m.geo.inLibrary(col, row) {
			return m.run(m.ctrl.CloseMenu())
		}
	}

	if m.geo.inLibrary(col, row) {
		if i, ok := m.lib.indexAt(row - m.geo.canvasY); ok {
			m.lib.cursor = i
			m.lib.focused = true
			if tpl, ok := m.lib.selected(); ok {
				m.drag = &libDrag{tpl: tpl}
			}
		}
		return m.run(m.ctrl.CloseMenu())
	}
	if inCanvas {
		m.lib.focused = false
		return m.run(m.ctrl.PointerDown(p))
	}
	return nil
}
