package cli

import (
	"strconv"
	"strings"

	"cuesheet/internal/docs"
	"cuesheet/internal/interact"
	"cuesheet/internal/model"
	"cuesheet/internal/timeline"

	"github.com/dustin/go-humanize"
)

// Table renderings of command payloads. JSON and EDN output marshal the
// underlying values unchanged.

type gameView struct {
	model.Game
	Current bool `json:"current"`
}

type gameList []gameView

func (l gameList) TableHeader() []string {
	return []string{"", "ID", "NAME", "KICKOFF", "CREATED"}
}

func (l gameList) TableRows() [][]string {
	out := make([][]string, 0, len(l))
	for _, g := range l {
		mark := ""
		if g.Current {
			mark = "*"
		}
		out = append(out, []string{mark, g.ID, g.Name, g.Kickoff, humanize.Time(g.CreatedAt)})
	}
	return out
}

type eventList []model.TimelineEvent

func (l eventList) TableHeader() []string {
	return []string{"ID", "START", "END", "DURATION", "LANE", "TYPE", "TITLE"}
}

func (l eventList) TableRows() [][]string {
	out := make([][]string, 0, len(l))
	for _, ev := range l {
		out = append(out, []string{
			ev.ID,
			timeline.FormatOffset(ev.StartOffsetSeconds),
			timeline.FormatOffset(ev.EndOffsetSeconds()),
			timeline.FormatDuration(ev.DurationSeconds),
			ev.LaneID,
			ev.ElementType,
			ev.Title,
		})
	}
	return out
}

// eventCard is one event with its recent history.
type eventCard struct {
	model.TimelineEvent
	History []model.LogEntry `json:"history,omitempty"`
}

func (c eventCard) TableHeader() []string { return []string{"FIELD", "VALUE"} }

func (c eventCard) TableRows() [][]string {
	ev := c.TimelineEvent
	rows := [][]string{
		{"id", ev.ID},
		{"title", ev.Title},
		{"lane", ev.LaneID},
		{"type", ev.ElementType},
		{"start", timeline.FormatOffset(ev.StartOffsetSeconds)},
		{"duration", timeline.FormatDuration(ev.DurationSeconds)},
	}
	if ev.Sponsor != nil {
		rows = append(rows, []string{"sponsor", *ev.Sponsor})
	}
	if ev.TemplateID != nil {
		rows = append(rows, []string{"template", *ev.TemplateID})
	}
	if d := strings.TrimSpace(ev.Description); d != "" {
		rows = append(rows, []string{"description", d})
	}
	rows = append(rows, []string{"updated", humanize.Time(ev.UpdatedAt)})
	for _, e := range c.History {
		rows = append(rows, []string{"history", e.Type + " " + humanize.Time(e.TS)})
	}
	return rows
}

type templateList []model.Template

func (l templateList) TableHeader() []string {
	return []string{"ID", "NAME", "TYPE", "DURATION", "SPONSOR", "PLACEHOLDERS"}
}

func (l templateList) TableRows() [][]string {
	out := make([][]string, 0, len(l))
	for _, t := range l {
		dur := ""
		if t.DefaultDurationSeconds > 0 {
			dur = timeline.FormatDuration(t.DefaultDurationSeconds)
		}
		out = append(out, []string{t.ID, t.Name, t.Type, dur, t.SponsorName, strings.Join(interact.Placeholders(t.Text), ", ")})
	}
	return out
}

type laneList []timeline.Lane

func (l laneList) TableHeader() []string { return []string{"#", "ID", "NAME", "COLOR", "SIZE"} }

func (l laneList) TableRows() [][]string {
	out := make([][]string, 0, len(l))
	for i, ln := range l {
		out = append(out, []string{strconv.Itoa(i), ln.ID, ln.Name, ln.Color, strconv.FormatFloat(ln.Size, 'f', -1, 64)})
	}
	return out
}

type ruleList []timeline.LaneRule

func (l ruleList) TableHeader() []string { return []string{"#", "CONTAINS", "LANE"} }

func (l ruleList) TableRows() [][]string {
	out := make([][]string, 0, len(l))
	for i, r := range l {
		out = append(out, []string{strconv.Itoa(i), strings.Join(r.Contains, ", "), r.LaneID})
	}
	return out
}

type classification struct {
	Type string `json:"type"`
	Lane string `json:"lane"`
}

type classificationList []classification

func (l classificationList) TableHeader() []string { return []string{"TYPE", "LANE"} }

func (l classificationList) TableRows() [][]string {
	out := make([][]string, 0, len(l))
	for _, c := range l {
		out = append(out, []string{c.Type, c.Lane})
	}
	return out
}

type logList []model.LogEntry

func (l logList) TableHeader() []string { return []string{"WHEN", "TYPE", "ENTITY"} }

func (l logList) TableRows() [][]string {
	out := make([][]string, 0, len(l))
	for _, e := range l {
		out = append(out, []string{humanize.Time(e.TS), e.Type, e.EntityID})
	}
	return out
}

type topicList []docs.Topic

func (l topicList) TableHeader() []string { return []string{"TOPIC", "TITLE"} }

func (l topicList) TableRows() [][]string {
	out := make([][]string, 0, len(l))
	for _, t := range l {
		out = append(out, []string{t.Name, t.Title})
	}
	return out
}
