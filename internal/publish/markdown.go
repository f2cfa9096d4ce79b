package publish

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"cuesheet/internal/model"
	"cuesheet/internal/timeline"
)

// Chronological returns events by start offset; ties keep declared order.
func Chronological(events []model.TimelineEvent) []model.TimelineEvent {
	out := append([]model.TimelineEvent(nil), events...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartOffsetSeconds < out[j].StartOffsetSeconds })
	return out
}

// RenderRundownMarkdown is the full run sheet of a game: a summary table in
// air order followed by every cue with its script text.
func RenderRundownMarkdown(g model.Game, events []model.TimelineEvent, lanes *timeline.LaneSet) string {
	if lanes == nil {
		lanes = timeline.DefaultLaneSet()
	}
	events = Chronological(events)

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(g.Name))
	writeLn("")
	writeLn("- ID: " + g.ID)
	if k := strings.TrimSpace(g.Kickoff); k != "" {
		writeLn("- Kickoff: " + k)
	}
	writeLn(fmt.Sprintf("- Cues: %d", len(events)))
	if n := len(events); n > 0 {
		var end float64
		for _, ev := range events {
			end = max(end, ev.EndOffsetSeconds())
		}
		writeLn("- Runs: " + timeline.FormatOffset(events[0].StartOffsetSeconds) + " to " + timeline.FormatOffset(end))
	}
	writeLn("")

	writeLn("## Rundown")
	writeLn("")
	if len(events) == 0 {
		writeLn("(no cues)")
		return buf.String()
	}
	writeLn("| Time | Ends | Length | Lane | Cue |")
	writeLn("| --- | --- | --- | --- | --- |")
	for _, ev := range events {
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s |\n",
			timeline.FormatOffset(ev.StartOffsetSeconds),
			timeline.FormatOffset(ev.EndOffsetSeconds()),
			timeline.FormatDuration(ev.DurationSeconds),
			cell(lanes.Resolve(ev.LaneID).Name),
			cell(ev.Title))
	}
	writeLn("")

	writeLn("## Cues")
	writeLn("")
	for _, ev := range events {
		renderCue(&buf, ev, lanes)
	}
	return buf.String()
}

// RenderLaneMarkdown is the cue list one operator needs: the events of a
// single lane in air order.
func RenderLaneMarkdown(g model.Game, lane timeline.Lane, events []model.TimelineEvent, lanes *timeline.LaneSet) string {
	if lanes == nil {
		lanes = timeline.DefaultLaneSet()
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s: %s\n\n", strings.TrimSpace(g.Name), lane.Name)

	n := 0
	for _, ev := range Chronological(events) {
		if lanes.Resolve(ev.LaneID).ID != lane.ID {
			continue
		}
		renderCue(&buf, ev, lanes)
		n++
	}
	if n == 0 {
		buf.WriteString("(no cues)\n")
	}
	return buf.String()
}

func renderCue(buf *bytes.Buffer, ev model.TimelineEvent, lanes *timeline.LaneSet) {
	fmt.Fprintf(buf, "### %s %s\n\n", timeline.FormatOffset(ev.StartOffsetSeconds), strings.TrimSpace(ev.Title))
	fmt.Fprintf(buf, "- Length: %s\n", timeline.FormatDuration(ev.DurationSeconds))
	fmt.Fprintf(buf, "- Lane: %s\n", lanes.Resolve(ev.LaneID).Name)
	if t := strings.TrimSpace(ev.ElementType); t != "" {
		fmt.Fprintf(buf, "- Type: %s\n", t)
	}
	if ev.Sponsor != nil && strings.TrimSpace(*ev.Sponsor) != "" {
		fmt.Fprintf(buf, "- Sponsor: %s\n", strings.TrimSpace(*ev.Sponsor))
	}
	if desc := strings.TrimSpace(ev.Description); desc != "" {
		buf.WriteString("\n")
		buf.WriteString(desc)
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}

func cell(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
