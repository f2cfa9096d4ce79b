package cli

import (
	"github.com/spf13/cobra"
)

func newLogCmd(app *App) *cobra.Command {
	var entity string
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the store's change log, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			entries, err := st.ReadLog(cmd.Context(), entity, limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, logList(entries))
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "Only entries for this game, event or template id")
	cmd.Flags().IntVar(&limit, "limit", 50, "Newest entries to show (0 = all)")
	return cmd
}
