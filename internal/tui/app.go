package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"cuesheet/internal/config"
	"cuesheet/internal/interact"
	"cuesheet/internal/logging"
	"cuesheet/internal/model"
	"cuesheet/internal/store"
	"cuesheet/internal/timeline"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	reloadEvery    = 750 * time.Millisecond
	storeTimeout   = 10 * time.Second
	panStepsPerKey = 4
)

type reloadTickMsg struct{}

type outcomeMsg struct{ outcome interact.Outcome }

type viewSavedMsg struct{ err error }

// libDrag is a template being dragged out of the library with the mouse.
type libDrag struct {
	tpl  model.Template
	over bool
}

type appModel struct {
	st     store.Store
	scope  store.GameScope
	game   model.Game
	logger *slog.Logger

	ctrl     *interact.Controller
	theme    timeline.Theme
	cellW    float64
	cellH    float64
	libWidth int

	width, height int
	geo           geometry

	keys     keyMap
	help     help.Model
	showHelp bool

	lib        library
	form       *form
	menuCursor int
	drag       *libDrag

	minibuffer      string
	minibufferLevel interact.Level

	dbMod, walMod time.Time
}

func newAppModel(ctx context.Context, opts Options) (appModel, error) {
	cfg := opts.Config
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	lanes, err := cfg.LaneSet()
	if err != nil {
		return appModel{}, err
	}
	logger := logging.WithComponent(opts.Logger, "tui").With(logging.FieldGame, opts.Game.ID)

	ctrl := interact.New(lanes, cfg.Viewport(0, 0), logger)
	vs, ok, err := opts.Store.LoadViewState(ctx, opts.Game.ID)
	if err != nil {
		return appModel{}, fmt.Errorf("load view state: %w", err)
	}
	if ok {
		ctrl.SetViewport(vs.Apply(ctrl.Viewport()))
	}

	m := appModel{
		st:       opts.Store,
		scope:    store.GameScope{Store: opts.Store, GameID: opts.Game.ID},
		game:     opts.Game,
		logger:   logger,
		ctrl:     ctrl,
		theme:    canvasTheme(),
		cellW:    cfg.TUI.CellWidth,
		cellH:    cfg.TUI.CellHeight,
		libWidth: cfg.TUI.LibraryWidth,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
	if m.cellW <= 0 {
		m.cellW = 8
	}
	if m.cellH <= 0 {
		m.cellH = 16
	}
	if err := m.reload(ctx); err != nil {
		return appModel{}, err
	}
	return m, nil
}

func (m appModel) Init() tea.Cmd { return tickReload() }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.geo = layoutFor(m.width, m.height, m.libWidth)
		m.help.Width = m.width
		cmd := m.run(m.ctrl.Resize(float64(m.geo.canvasCols)*m.cellW, float64(m.geo.canvasRows)*m.cellH))
		return m, cmd

	case reloadTickMsg:
		if m.storeChanged() && m.canReload() {
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			err := m.reload(ctx)
			cancel()
			if err != nil {
				m.logger.Warn("reload failed", logging.Err(err))
			}
		}
		return m, tickReload()

	case outcomeMsg:
		cmd := m.run(m.ctrl.Resolve(msg.outcome))
		return m, cmd

	case viewSavedMsg:
		if msg.err != nil {
			m.logger.Warn("save view failed", logging.Err(msg.err))
			m.setMinibuffer(interact.LevelWarn, "View not saved: "+msg.err.Error())
		}
		return m, nil

	case tea.MouseMsg:
		cmd := m.handleMouse(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.form != nil {
			cmd := m.updateForm(msg)
			return m, cmd
		}
		cmd := m.handleKey(msg)
		return m, cmd
	}

	if m.form != nil {
		cmd := m.updateForm(msg)
		return m, cmd
	}
	return m, nil
}

// run applies controller effects: persistence goes to a command that runs
// off the UI loop, everything else updates the host directly.
func (m *appModel) run(effects []interact.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range effects {
		if interact.IsPersistence(e) {
			cmds = append(cmds, m.dispatch(e))
			continue
		}
		switch e := e.(type) {
		case interact.Notify:
			m.setMinibuffer(e.Level, e.Message)
		case interact.OpenCreateFlow:
			f := newCreateForm(e.Snapped, e.LaneID)
			m.form = &f
		case interact.OpenEditFlow:
			ev, ok := m.ctrl.Event(e.EventID)
			if !ok {
				m.setMinibuffer(interact.LevelError, "event no longer exists")
				continue
			}
			f := newEditForm(ev)
			m.form = &f
		case interact.ViewChanged:
			cmds = append(cmds, m.saveView(e.Viewport))
		case interact.Rerender:
		}
	}
	if p, ok := m.ctrl.State().(interact.PlaceholderPrompt); ok && m.form == nil {
		f := newPromptForm(p)
		m.form = &f
	}
	if _, ok := m.ctrl.State().(interact.ContextMenu); !ok {
		m.menuCursor = 0
	}
	return tea.Batch(cmds...)
}

func (m appModel) dispatch(e interact.Effect) tea.Cmd {
	scope := m.scope
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		o := interact.Dispatch(ctx, scope, e)
		if o.Err != nil {
			logger.Warn("persistence failed", slog.String(logging.FieldEffect, fmt.Sprintf("%T", e)), logging.Err(o.Err))
		}
		return outcomeMsg{outcome: o}
	}
}

func (m appModel) saveView(v timeline.Viewport) tea.Cmd {
	st, gameID := m.st, m.game.ID
	vs := store.ViewStateOf(v)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return viewSavedMsg{err: st.SaveViewState(ctx, gameID, vs)}
	}
}

func (m *appModel) setMinibuffer(level interact.Level, text string) {
	m.minibufferLevel = level
	m.minibuffer = text
}

func (m *appModel) updateForm(msg tea.Msg) tea.Cmd {
	f := m.form
	cmd, res := f.update(msg)
	switch res {
	case formCancel:
		m.form = nil
		if f.kind == formPrompt {
			return m.run(m.ctrl.CancelPrompt())
		}
		return nil
	case formSubmit:
		return m.submitForm(f)
	}
	return cmd
}

func (m *appModel) submitForm(f *form) tea.Cmd {
	lanes := m.ctrl.Lanes()
	switch f.kind {
	case formPrompt:
		m.form = nil
		cmd := m.run(m.ctrl.SubmitPrompt(f.values()))
		if m.form != nil {
			// Reopened with the merged values; show what is still missing.
			m.form.err = m.minibuffer
		}
		return cmd

	case formCreate:
		d, err := f.draft(lanes)
		if err != nil {
			f.err = err.Error()
			return nil
		}
		m.form = nil
		return m.run(m.ctrl.Create(d))

	case formEdit:
		ev, ok := m.ctrl.Event(f.eventID)
		if !ok {
			m.form = nil
			m.setMinibuffer(interact.LevelError, "event no longer exists")
			return nil
		}
		p, err := f.patch(ev, lanes)
		if err != nil {
			f.err = err.Error()
			return nil
		}
		m.form = nil
		if p.Empty() {
			m.setMinibuffer(interact.LevelInfo, "No changes")
			return nil
		}
		return m.run(m.ctrl.Edit(f.eventID, p))
	}
	return nil
}

func (m *appModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.minibuffer = ""
	k := m.keys

	if cm, ok := m.ctrl.State().(interact.ContextMenu); ok {
		switch {
		case key.Matches(msg, k.Up):
			m.menuCursor = max(0, m.menuCursor-1)
			return nil
		case key.Matches(msg, k.Down):
			m.menuCursor = min(len(cm.Items)-1, m.menuCursor+1)
			return nil
		case key.Matches(msg, k.Enter):
			if m.menuCursor < len(cm.Items) {
				return m.run(m.ctrl.ChooseMenu(cm.Items[m.menuCursor].Action))
			}
			return nil
		case key.Matches(msg, k.Escape):
			return m.run(m.ctrl.CloseMenu())
		}
	}

	switch {
	case key.Matches(msg, k.Quit):
		return tea.Quit
	case key.Matches(msg, k.Escape):
		m.drag = nil
		m.lib.focused = false
		return m.run(m.ctrl.Escape())
	case key.Matches(msg, k.Help):
		m.showHelp = !m.showHelp
		return nil
	case key.Matches(msg, k.ZoomIn):
		return m.run(m.ctrl.ZoomIn())
	case key.Matches(msg, k.ZoomOut):
		return m.run(m.ctrl.ZoomOut())
	case key.Matches(msg, k.IntervalNext):
		return m.run(m.ctrl.SetInterval(m.ctrl.Viewport().Interval.Next()))
	case key.Matches(msg, k.IntervalPrev):
		return m.run(m.ctrl.SetInterval(m.ctrl.Viewport().Interval.Prev()))
	case key.Matches(msg, k.Orientation):
		o := timeline.Vertical
		if m.ctrl.Viewport().Orientation == timeline.Vertical {
			o = timeline.Horizontal
		}
		return m.run(m.ctrl.SetOrientation(o))
	case key.Matches(msg, k.PanBack):
		return m.run(m.ctrl.Pan(-m.panStep()))
	case key.Matches(msg, k.PanForward):
		return m.run(m.ctrl.Pan(m.panStep()))
	case key.Matches(msg, k.Reload):
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := m.reload(ctx); err != nil {
			m.setMinibuffer(interact.LevelError, "Reload failed: "+err.Error())
		} else {
			m.setMinibuffer(interact.LevelInfo, "Reloaded")
		}
		return nil
	case key.Matches(msg, k.Library):
		m.lib.focused = !m.lib.focused
		return nil
	}

	if m.lib.focused {
		switch {
		case key.Matches(msg, k.Up):
			m.lib.move(-1, m.geo.canvasRows-libraryTitleRows)
		case key.Matches(msg, k.Down):
			m.lib.move(1, m.geo.canvasRows-libraryTitleRows)
		case key.Matches(msg, k.Enter):
			return m.dropSelectedTemplate()
		}
		return nil
	}

	switch {
	case key.Matches(msg, k.Up):
		return m.run(m.selectStep(-1))
	case key.Matches(msg, k.Down):
		return m.run(m.selectStep(1))
	case key.Matches(msg, k.New):
		v := m.ctrl.Viewport()
		f := newCreateForm(timeline.RoundToInterval(v.Origin, v.Interval), "")
		m.form = &f
		return nil
	case key.Matches(msg, k.Menu), key.Matches(msg, k.Enter):
		return m.openMenuOnSelected()
	case key.Matches(msg, k.Edit):
		return m.menuOnSelected(interact.ActionEdit)
	case key.Matches(msg, k.Duplicate):
		return m.menuOnSelected(interact.ActionDuplicate)
	case key.Matches(msg, k.Delete):
		return m.menuOnSelected(interact.ActionDelete)
	}
	return nil
}

func (m appModel) panStep() float64 {
	return m.ctrl.Viewport().Interval.Seconds() * panStepsPerKey
}

// selectStep moves the selection through events in start order.
func (m *appModel) selectStep(delta int) []interact.Effect {
	evs := sortedByStart(m.ctrl.Events())
	if len(evs) == 0 {
		return nil
	}
	cur := -1
	for i, ev := range evs {
		if ev.ID == m.ctrl.Selected() {
			cur = i
			break
		}
	}
	next := 0
	if cur >= 0 {
		next = max(0, min(len(evs)-1, cur+delta))
	}
	return m.ctrl.Select(evs[next].ID)
}

// blockCenter finds the on-screen center of the selected event's block.
func (m appModel) blockCenter(id string) (timeline.Point, bool) {
	f := m.ctrl.Frame(m.measurer(), m.theme)
	for _, b := range f.Blocks {
		if b.EventID == id {
			r := b.Rect
			return timeline.Point{X: r.X + r.W/2, Y: r.Y + r.H/2}, true
		}
	}
	return timeline.Point{}, false
}

func (m *appModel) openMenuOnSelected() tea.Cmd {
	id := m.ctrl.Selected()
	if id == "" {
		m.setMinibuffer(interact.LevelWarn, "Select an event first")
		return nil
	}
	p, ok := m.blockCenter(id)
	if !ok {
		return nil
	}
	return m.run(m.ctrl.RightClick(p))
}

// menuOnSelected routes keyboard shortcuts through the context menu so they
// share its rules.
func (m *appModel) menuOnSelected(a interact.MenuAction) tea.Cmd {
	if cmd := m.openMenuOnSelected(); cmd != nil {
		return cmd
	}
	if _, ok := m.ctrl.State().(interact.ContextMenu); !ok {
		return nil
	}
	return m.run(m.ctrl.ChooseMenu(a))
}

func (m *appModel) dropSelectedTemplate() tea.Cmd {
	tpl, ok := m.lib.selected()
	if !ok {
		return nil
	}
	v := m.ctrl.Viewport()
	p := v.At(v.Metrics.HeaderSize+1, v.Metrics.RulerSize+1)
	m.lib.focused = false
	return m.run(m.ctrl.DropTemplate(p, tpl))
}

func (m appModel) canReload() bool {
	if _, idle := m.ctrl.State().(interact.Idle); !idle || m.form != nil || m.drag != nil {
		return false
	}
	for _, ev := range m.ctrl.Events() {
		if m.ctrl.InFlight(ev.ID) {
			return false
		}
	}
	return true
}

func (m *appModel) reload(ctx context.Context) error {
	events, err := m.scope.Events(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	templates, err := m.st.ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	m.ctrl.SetEvents(events)
	m.lib.set(templates)
	m.captureStoreModTimes()
	return nil
}

func tickReload() tea.Cmd {
	return tea.Tick(reloadEvery, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

func (m *appModel) captureStoreModTimes() {
	m.dbMod = fileModTime(m.st.Path())
	m.walMod = fileModTime(m.st.Path() + "-wal")
}

func (m appModel) storeChanged() bool {
	return !fileModTime(m.st.Path()).Equal(m.dbMod) || !fileModTime(m.st.Path()+"-wal").Equal(m.walMod)
}

func fileModTime(path string) time.Time {
	st, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return st.ModTime()
}

func sortedByStart(events []model.TimelineEvent) []model.TimelineEvent {
	out := append([]model.TimelineEvent(nil), events...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartOffsetSeconds < out[j].StartOffsetSeconds })
	return out
}

func (m appModel) measurer() timeline.Measurer {
	return timeline.MonoMeasurer{CellWidth: m.cellW}
}

func (m appModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	g := m.geo
	header := normalizePane(m.headerView(), m.width, headerRows)

	canvas := normalizePane(m.canvasView(), g.canvasCols, g.canvasRows)
	body := canvas
	if g.libWidth > 0 {
		lib := m.lib.view(g.libWidth, g.canvasRows, m.ctrl.Lanes())
		sep := styleMuted().Render(strings.TrimSuffix(strings.Repeat("│\n", g.canvasRows), "\n"))
		body = lipgloss.JoinHorizontal(lipgloss.Top, lib, sep, canvas)
	}

	detail := normalizePane(m.detailView(), m.width, detailRows)
	status := normalizePane(m.statusView(), m.width, statusRows)
	screen := strings.Join([]string{header, body, detail, status}, "\n")

	if cm, ok := m.ctrl.State().(interact.ContextMenu); ok {
		x, y, _, _ := m.menuRect(cm)
		screen = overlay(screen, menuBox(cm.Items, m.menuCursor), x, y)
	}
	if m.form != nil {
		box := m.form.view(m.width - 4)
		x := (m.width - lipgloss.Width(box)) / 2
		y := (m.height - lipgloss.Height(box)) / 2
		screen = overlay(screen, box, x, y)
	}
	if m.showHelp {
		box := styleModal().Render(m.help.FullHelpView(m.keys.FullHelp()))
		screen = overlay(screen, box, (m.width-lipgloss.Width(box))/2, (m.height-lipgloss.Height(box))/2)
	}
	return screen
}

func (m appModel) canvasView() string {
	s := newCellSurface(m.geo.canvasCols, m.geo.canvasRows, m.cellW, m.cellH)
	timeline.Paint(m.logger, s, m.ctrl.Frame(m.measurer(), m.theme))
	return s.Render()
}

func (m appModel) headerView() string {
	v := m.ctrl.Viewport()
	title := styleHeader().Render("cuesheet") + styleMuted().Render(" · ") + styleHeader().Render(m.game.Name)
	if m.game.Kickoff != "" {
		title += styleMuted().Render("  kickoff " + m.game.Kickoff)
	}
	start, end := v.VisibleWindow()
	meta := fmt.Sprintf("%s–%s  interval %s  zoom %.2f×  %s",
		timeline.FormatOffset(start), timeline.FormatOffset(end), v.Interval.Label(), v.Zoom.Level, v.Orientation)
	if name := m.ctrl.State().Name(); name != "idle" {
		meta += "  [" + name + "]"
	}
	gap := max(1, m.width-lipgloss.Width(title)-lipgloss.Width(meta)-1)
	return title + strings.Repeat(" ", gap) + styleMuted().Render(meta)
}

func (m appModel) detailView() string {
	sepLine := styleMuted().Render(strings.Repeat("─", m.width))
	ev, ok := m.ctrl.Event(m.ctrl.Selected())
	if !ok {
		hint := "drag blocks to move · click empty canvas to add · right-click for actions · drag templates from the library"
		return sepLine + "\n" + styleMuted().Render(hint)
	}
	lane := m.ctrl.Lanes().Resolve(ev.LaneID)
	parts := []string{
		timeline.FormatOffset(ev.StartOffsetSeconds) + "–" + timeline.FormatOffset(ev.EndOffsetSeconds()),
		timeline.FormatDuration(ev.DurationSeconds),
		lane.Name,
	}
	if ev.ElementType != "" {
		parts = append(parts, ev.ElementType)
	}
	if ev.Sponsor != nil {
		parts = append(parts, "sponsor "+*ev.Sponsor)
	}
	if m.ctrl.InFlight(ev.ID) {
		parts = append(parts, "saving…")
	}
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(lane.Color)).Render("■ ")
	line := swatch + styleHeader().Render(ev.Title) + "  " + styleMuted().Render(strings.Join(parts, " · "))
	out := sepLine + "\n" + line
	if md := renderMarkdown(ev.Description, m.width-2); md != "" {
		out += "\n" + md
	}
	return out
}

func (m appModel) statusView() string {
	if m.minibuffer != "" {
		st := lipgloss.NewStyle()
		switch m.minibufferLevel {
		case interact.LevelWarn:
			st = st.Foreground(colorWarn)
		case interact.LevelError:
			st = st.Foreground(colorError).Bold(true)
		}
		return st.Render(m.minibuffer)
	}
	return m.help.ShortHelpView(m.keys.ShortHelp())
}
