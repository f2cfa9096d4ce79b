package cli

import (
	"strings"

	"cuesheet/internal/interact"
	"cuesheet/internal/model"
	"cuesheet/internal/store"
	"cuesheet/internal/timeline"

	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Timeline event commands",
	}
	cmd.AddCommand(newEventsListCmd(app))
	cmd.AddCommand(newEventsShowCmd(app))
	cmd.AddCommand(newEventsAddCmd(app))
	cmd.AddCommand(newEventsMoveCmd(app))
	cmd.AddCommand(newEventsRmCmd(app))
	return cmd
}

func newEventsListCmd(app *App) *cobra.Command {
	var lane string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the current game's events in declared order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, g, err := openGame(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			events, err := st.ListEvents(ctx, g.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := make(eventList, 0, len(events))
			for _, ev := range events {
				if lane != "" && ev.LaneID != lane {
					continue
				}
				out = append(out, ev)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&lane, "lane", "", "Only events on this lane id")
	return cmd
}

func newEventsShowCmd(app *App) *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "show <event-id>",
		Short: "Show one event and its recent changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ev, err := st.FindEvent(ctx, strings.TrimSpace(args[0]))
			if err != nil {
				return writeErr(cmd, err)
			}
			card := eventCard{TimelineEvent: ev}
			if history > 0 {
				if card.History, err = st.ReadLog(ctx, ev.ID, history); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, card)
		},
	}

	cmd.Flags().IntVar(&history, "history", 5, "Number of change-log entries to include (0 = none)")
	return cmd
}

func newEventsAddCmd(app *App) *cobra.Command {
	var (
		title       string
		start       string
		duration    string
		lane        string
		typ         string
		description string
		sponsor     string
		templateRef string
		sets        []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an event to the current game",
		Long: strings.TrimSpace(`
Add an event by hand, or from the element library with --template.

Template text placeholders such as {sponsor} are filled from the template's
sponsor, the lane ({lane}), the start ({time}) and --set name=value pairs.
Every placeholder must end up with a value.

Without --lane the lane is classified from the element type.
`),
		Example: strings.TrimSpace(`
cuesheet events add --title "Kickoff" --type "Game Event" --start 0
cuesheet events add --template "Sponsor Read" --start 12:30 --set sponsor=Acme --set tagline="Built to last."
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, g, err := openGame(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			lanes, err := app.lanes()
			if err != nil {
				return writeErr(cmd, err)
			}
			offset, err := timeline.ParseOffset(start)
			if err != nil {
				return writeErr(cmd, errInvalid("start", "%v", err))
			}
			values, err := parseSets(sets)
			if err != nil {
				return writeErr(cmd, err)
			}
			if lane != "" && !lanes.Has(lane) {
				return writeErr(cmd, errInvalid("lane", "unknown lane %q", lane))
			}

			var d model.EventDraft
			if templateRef != "" {
				tpl, err := st.FindTemplate(ctx, templateRef)
				if err != nil {
					return writeErr(cmd, err)
				}
				if sponsor != "" {
					tpl.SponsorName = sponsor
				}
				laneID := lane
				if laneID == "" {
					laneID = interact.TemplateLane(lanes, tpl)
				}
				var missing []string
				d, missing = interact.FromTemplate(tpl, lanes.Resolve(laneID), offset, values)
				if len(missing) > 0 {
					return writeErr(cmd, errInvalid("set", "template %q needs values for: %s (pass --set name=value)",
						tpl.Name, strings.Join(missing, ", ")))
				}
			} else {
				d = model.EventDraft{StartOffsetSeconds: offset, LaneID: lane}
				if sponsor != "" {
					d.Sponsor = model.StringPtr(sponsor)
				}
			}

			if t := strings.TrimSpace(title); t != "" {
				d.Title = t
			}
			if t := strings.TrimSpace(typ); t != "" {
				d.ElementType = t
			}
			if desc := strings.TrimSpace(description); desc != "" {
				d.Description = desc
			}
			if duration != "" {
				if d.DurationSeconds, err = timeline.ParseDuration(duration); err != nil {
					return writeErr(cmd, errInvalid("duration", "%v", err))
				}
			}
			if d.LaneID == "" {
				d.LaneID = lanes.Classify(d.ElementType)
			}

			ev, err := st.CreateEvent(ctx, g.ID, d)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, eventCard{TimelineEvent: ev})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Event title (default: the template name)")
	cmd.Flags().StringVar(&start, "start", "0", "Start offset from kickoff (seconds, MM:SS or H:MM:SS)")
	cmd.Flags().StringVar(&duration, "duration", "", "Duration (seconds, MM:SS or 2m30s; default: template or 1m)")
	cmd.Flags().StringVar(&lane, "lane", "", "Lane id (default: classified from the element type)")
	cmd.Flags().StringVar(&typ, "type", "", "Element type, e.g. \"Sponsor Read\"")
	cmd.Flags().StringVar(&description, "description", "", "Description (markdown; overrides template text)")
	cmd.Flags().StringVar(&sponsor, "sponsor", "", "Sponsor name")
	cmd.Flags().StringVar(&templateRef, "template", "", "Element library template id or name")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Placeholder value as name=value (repeatable)")
	return cmd
}

func newEventsMoveCmd(app *App) *cobra.Command {
	var (
		start    string
		lane     string
		duration string
		snap     string
	)

	cmd := &cobra.Command{
		Use:   "move <event-id>",
		Short: "Move an event to a new start and/or lane",
		Args:  cobra.ExactArgs(1),
		Example: strings.TrimSpace(`
cuesheet events move evt-123 --start 14:10
cuesheet events move evt-123 --start 14:10 --snap 1m
cuesheet events move evt-123 --lane talent
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			lanes, err := app.lanes()
			if err != nil {
				return writeErr(cmd, err)
			}

			var p model.EventPatch
			if start != "" {
				offset, err := timeline.ParseOffset(start)
				if err != nil {
					return writeErr(cmd, errInvalid("start", "%v", err))
				}
				if snap != "" {
					iv, err := timeline.ParseInterval(snap)
					if err != nil {
						return writeErr(cmd, errInvalid("snap", "%v", err))
					}
					offset = timeline.RoundToInterval(offset, iv)
				}
				p.StartOffsetSeconds = model.Float64Ptr(offset)
			}
			if lane != "" {
				if !lanes.Has(lane) {
					return writeErr(cmd, errInvalid("lane", "unknown lane %q", lane))
				}
				p.LaneID = model.StringPtr(lane)
			}
			if duration != "" {
				d, err := timeline.ParseDuration(duration)
				if err != nil {
					return writeErr(cmd, errInvalid("duration", "%v", err))
				}
				p.DurationSeconds = model.Float64Ptr(d)
			}
			if p.Empty() {
				return writeErr(cmd, errInvalid("move", "nothing to change; pass --start, --lane or --duration"))
			}

			ev, err := st.UpdateEvent(ctx, strings.TrimSpace(args[0]), p)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, eventCard{TimelineEvent: ev})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "New start offset (seconds, MM:SS or H:MM:SS)")
	cmd.Flags().StringVar(&lane, "lane", "", "New lane id")
	cmd.Flags().StringVar(&duration, "duration", "", "New duration")
	cmd.Flags().StringVar(&snap, "snap", "", "Round --start to this interval (15s|30s|1|5|15|30|60)")
	return cmd
}

func newEventsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <event-id>",
		Aliases: []string{"delete"},
		Short:   "Delete an event",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			if err := st.DeleteEvent(cmd.Context(), id); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"id": id, "deleted": true})
		},
	}
}

// parseSets reads repeated --set name=value flags.
func parseSets(sets []string) (map[string]string, error) {
	out := map[string]string{}
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, store.ValidationError{Field: "set", Reason: "want name=value, got " + s}
		}
		out[name] = value
	}
	return out, nil
}
