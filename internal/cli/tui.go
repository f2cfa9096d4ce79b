package cli

import (
	"cuesheet/internal/logging"
	"cuesheet/internal/tui"

	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive timeline canvas (same as running with no command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	st, g, err := openGame(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	cfg, err := app.config()
	if err != nil {
		return writeErr(cmd, err)
	}
	// stdout belongs to the terminal UI; logs only go to the configured file.
	logger, closer, err := logging.NewForTUI(cfg)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer closer.Close()

	logger.Info("tui starting", logging.FieldGame, g.ID, "dir", st.Dir)
	return tui.Run(ctx, tui.Options{Store: st, Game: g, Config: cfg, Logger: logger})
}
