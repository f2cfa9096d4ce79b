package tui

import (
	"fmt"
	"sort"
	"strings"

	"cuesheet/internal/interact"
	"cuesheet/internal/model"
	"cuesheet/internal/timeline"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formKind int

const (
	formCreate formKind = iota
	formEdit
	formPrompt
)

type formResult int

const (
	formContinue formResult = iota
	formSubmit
	formCancel
)

const (
	fieldTitle       = "title"
	fieldStart       = "start"
	fieldDuration    = "duration"
	fieldLane        = "lane"
	fieldType        = "type"
	fieldDescription = "description"
)

type formField struct {
	key   string
	label string
	input textinput.Model
}

// form is the modal used for create, edit and placeholder prompts.
type form struct {
	kind    formKind
	title   string
	eventID string
	fields  []formField
	focus   int
	err     string
}

func newField(key, label, value, placeholder string) formField {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 512
	ti.SetValue(value)
	return formField{key: key, label: label, input: ti}
}

func newCreateForm(offset float64, laneID string) form {
	f := form{kind: formCreate, title: "New event"}
	f.fields = []formField{
		newField(fieldTitle, "Title", "", "Kickoff"),
		newField(fieldStart, "Start", timeline.FormatOffset(offset), "MM:SS"),
		newField(fieldDuration, "Duration", "", "60s, 1:30, 2m"),
		newField(fieldLane, "Lane", laneID, "lane id (blank: by type)"),
		newField(fieldType, "Type", "", "Sponsor Read"),
		newField(fieldDescription, "Notes", "", "markdown"),
	}
	f.focusField(0)
	return f
}

func newEditForm(ev model.TimelineEvent) form {
	f := form{kind: formEdit, title: "Edit " + ev.Title, eventID: ev.ID}
	f.fields = []formField{
		newField(fieldTitle, "Title", ev.Title, ""),
		newField(fieldStart, "Start", timeline.FormatOffset(ev.StartOffsetSeconds), "MM:SS"),
		newField(fieldDuration, "Duration", timeline.FormatDuration(ev.DurationSeconds), "60s, 1:30, 2m"),
		newField(fieldLane, "Lane", ev.LaneID, ""),
		newField(fieldType, "Type", ev.ElementType, ""),
		newField(fieldDescription, "Notes", ev.Description, ""),
	}
	f.focusField(0)
	return f
}

func newPromptForm(p interact.PlaceholderPrompt) form {
	f := form{kind: formPrompt, title: "Fill in " + firstNonBlank(p.Template.Name, p.Template.Type)}
	for _, tok := range p.Tokens {
		f.fields = append(f.fields, newField(tok, tok, p.Values[tok], "{"+tok+"}"))
	}
	f.focusField(0)
	return f
}

func (f *form) focusField(i int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.focus = (i + len(f.fields)) % len(f.fields)
	for j := range f.fields {
		f.fields[j].input.Blur()
	}
	return f.fields[f.focus].input.Focus()
}

func (f *form) update(msg tea.Msg) (tea.Cmd, formResult) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			return nil, formCancel
		case "enter":
			return nil, formSubmit
		case "tab", "down":
			return f.focusField(f.focus + 1), formContinue
		case "shift+tab", "up":
			return f.focusField(f.focus - 1), formContinue
		}
	}
	if len(f.fields) == 0 {
		return nil, formContinue
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd, formContinue
}

func (f form) value(key string) string {
	for _, fl := range f.fields {
		if fl.key == key {
			return strings.TrimSpace(fl.input.Value())
		}
	}
	return ""
}

func (f form) values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, fl := range f.fields {
		out[fl.key] = fl.input.Value()
	}
	return out
}

func checkLane(lanes *timeline.LaneSet, id string) error {
	if id == "" || lanes.Has(id) {
		return nil
	}
	known := make([]string, 0, lanes.Len())
	for _, l := range lanes.Lanes() {
		known = append(known, l.ID)
	}
	sort.Strings(known)
	return fmt.Errorf("unknown lane %q (have %s)", id, strings.Join(known, ", "))
}

func (f form) draft(lanes *timeline.LaneSet) (model.EventDraft, error) {
	d := model.EventDraft{
		Title:       f.value(fieldTitle),
		Description: f.value(fieldDescription),
		LaneID:      f.value(fieldLane),
		ElementType: f.value(fieldType),
	}
	if d.Title == "" {
		return d, fmt.Errorf("title is required")
	}
	start, err := timeline.ParseOffset(f.value(fieldStart))
	if err != nil {
		return d, err
	}
	d.StartOffsetSeconds = start
	if s := f.value(fieldDuration); s != "" {
		if d.DurationSeconds, err = timeline.ParseDuration(s); err != nil {
			return d, err
		}
	}
	return d, checkLane(lanes, d.LaneID)
}

// patch reports only the fields that differ from ev.
func (f form) patch(ev model.TimelineEvent, lanes *timeline.LaneSet) (model.EventPatch, error) {
	var p model.EventPatch
	if t := f.value(fieldTitle); t != ev.Title {
		if t == "" {
			return p, fmt.Errorf("title is required")
		}
		p.Title = model.StringPtr(t)
	}
	start, err := timeline.ParseOffset(f.value(fieldStart))
	if err != nil {
		return p, err
	}
	if timeline.FormatOffset(start) != timeline.FormatOffset(ev.StartOffsetSeconds) {
		p.StartOffsetSeconds = model.Float64Ptr(start)
	}
	dur, err := timeline.ParseDuration(f.value(fieldDuration))
	if err != nil {
		return p, err
	}
	if timeline.FormatDuration(dur) != timeline.FormatDuration(ev.DurationSeconds) {
		p.DurationSeconds = model.Float64Ptr(dur)
	}
	if l := f.value(fieldLane); l != ev.LaneID {
		if l == "" {
			return p, fmt.Errorf("lane is required")
		}
		if err := checkLane(lanes, l); err != nil {
			return p, err
		}
		p.LaneID = model.StringPtr(l)
	}
	if t := f.value(fieldType); t != ev.ElementType {
		p.ElementType = model.StringPtr(t)
	}
	if d := f.value(fieldDescription); d != strings.TrimSpace(ev.Description) {
		p.Description = model.StringPtr(d)
	}
	return p, nil
}

func (f *form) view(width int) string {
	width = max(30, min(width, 72))
	labelW := 0
	for _, fl := range f.fields {
		labelW = max(labelW, lipgloss.Width(fl.label))
	}
	inputW := max(8, width-labelW-6)

	lines := []string{styleHeader().Render(f.title), ""}
	for i := range f.fields {
		fl := &f.fields[i]
		fl.input.Width = inputW
		label := lipgloss.NewStyle().Width(labelW).Render(fl.label)
		if i == f.focus {
			label = lipgloss.NewStyle().Width(labelW).Bold(true).Foreground(colorAccent).Render(fl.label)
		}
		lines = append(lines, label+"  "+fl.input.View())
	}
	if f.err != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(colorError).Render(f.err))
	}
	lines = append(lines, "", styleMuted().Render("enter save · tab next · esc cancel"))
	return styleModal().Width(width).Render(strings.Join(lines, "\n"))
}
