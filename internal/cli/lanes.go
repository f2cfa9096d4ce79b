package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newLanesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lanes",
		Short: "Lane configuration commands",
	}
	cmd.AddCommand(newLanesListCmd(app))
	cmd.AddCommand(newLanesRulesCmd(app))
	cmd.AddCommand(newLanesClassifyCmd(app))
	return cmd
}

func newLanesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lanes in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			lanes, err := app.lanes()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, laneList(lanes.Lanes()))
		},
	}
}

func newLanesRulesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List classification rules in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			lanes, err := app.lanes()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, ruleList(lanes.Rules()), "unmatched types land on "+lanes.Fallback())
		},
	}
}

func newLanesClassifyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <element-type>...",
		Short: "Show which lane each element type lands on",
		Args:  cobra.MinimumNArgs(1),
		Example: strings.TrimSpace(`
cuesheet lanes classify "Sponsor Read" "Lower Third Graphic" "Crowd noise"
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			lanes, err := app.lanes()
			if err != nil {
				return writeErr(cmd, err)
			}
			out := make(classificationList, 0, len(args))
			for _, typ := range args {
				out = append(out, classification{Type: typ, Lane: lanes.Classify(typ)})
			}
			return writeOut(cmd, app, out)
		},
	}
}
