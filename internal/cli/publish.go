package cli

import (
	"strings"

	"cuesheet/internal/publish"

	"github.com/spf13/cobra"
)

func newPublishCmd(app *App) *cobra.Command {
	var (
		to        string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write the current game's run sheet as Markdown files",
		Long: strings.TrimSpace(`
Write <dir>/<game-id>/rundown.md (every cue in air order) and one cue list per
lane under <dir>/<game-id>/lanes/. Existing files are kept unless --overwrite.
`),
		Example: strings.TrimSpace(`
cuesheet publish --to ./rundowns
cuesheet publish --to ./rundowns --overwrite
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
			events, err := st.ListEvents(ctx, g.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := publish.WriteGame(g, events, lanes, to, publish.WriteOptions{Overwrite: overwrite})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, res)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
