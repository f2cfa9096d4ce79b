package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit         key.Binding
	Escape       key.Binding
	ZoomIn       key.Binding
	ZoomOut      key.Binding
	IntervalNext key.Binding
	IntervalPrev key.Binding
	Orientation  key.Binding
	PanBack      key.Binding
	PanForward   key.Binding
	Reload       key.Binding
	Library      key.Binding
	Up           key.Binding
	Down         key.Binding
	Enter        key.Binding
	New          key.Binding
	Edit         key.Binding
	Duplicate    key.Binding
	Delete       key.Binding
	Menu         key.Binding
	Help         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Escape:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		ZoomIn:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut:      key.NewBinding(key.WithKeys("-", "_")),
		IntervalNext: key.NewBinding(key.WithKeys("i"), key.WithHelp("i/I", "interval")),
		IntervalPrev: key.NewBinding(key.WithKeys("I")),
		Orientation:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "rotate")),
		PanBack:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "pan")),
		PanForward:   key.NewBinding(key.WithKeys("right", "l")),
		Reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Library:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "library")),
		Up:           key.NewBinding(key.WithKeys("up", "k")),
		Down:         key.NewBinding(key.WithKeys("down", "j")),
		Enter:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop/choose")),
		New:          key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Duplicate:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "duplicate")),
		Delete:       key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Menu:         key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Library, k.New, k.Edit, k.Delete, k.ZoomIn, k.IntervalNext, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ZoomIn, k.IntervalNext, k.Orientation, k.PanBack},
		{k.Library, k.Enter, k.New, k.Menu},
		{k.Edit, k.Duplicate, k.Delete, k.Reload},
		{k.Escape, k.Help, k.Quit},
	}
}
