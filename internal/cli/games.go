package cli

import (
	"strings"

	"cuesheet/internal/logging"

	"github.com/spf13/cobra"
)

func newGamesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Game commands",
	}
	cmd.AddCommand(newGamesCreateCmd(app))
	cmd.AddCommand(newGamesListCmd(app))
	cmd.AddCommand(newGamesUseCmd(app))
	return cmd
}

func newGamesCreateCmd(app *App) *cobra.Command {
	var kickoff string
	var use bool

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			g, err := st.CreateGame(ctx, strings.TrimSpace(args[0]), strings.TrimSpace(kickoff))
			if err != nil {
				return writeErr(cmd, err)
			}
			// A new store starts with the built-in element library.
			if _, err := st.SeedTemplates(ctx); err != nil {
				return writeErr(cmd, err)
			}
			if use {
				if _, err := st.UseGame(ctx, g.ID); err != nil {
					return writeErr(cmd, err)
				}
			}
			if logger, err := app.log(); err == nil {
				logger.Debug("game created", logging.FieldGame, g.ID, "dir", st.Dir)
			}
			hints := []string{}
			if !use {
				hints = append(hints, "cuesheet games use "+g.ID)
			}
			return writeOut(cmd, app, gameView{Game: g, Current: use}, hints...)
		},
	}

	cmd.Flags().StringVar(&kickoff, "kickoff", "", "Kickoff date/time (free text, e.g. \"2026-10-17 19:00\")")
	cmd.Flags().BoolVar(&use, "use", false, "Make the new game current")
	return cmd
}

func newGamesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List games",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			games, err := st.ListGames(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			cur, ok, err := st.CurrentGame(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := make(gameList, 0, len(games))
			for _, g := range games {
				out = append(out, gameView{Game: g, Current: ok && g.ID == cur.ID})
			}
			return writeOut(cmd, app, out)
		},
	}
}

func newGamesUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <game>",
		Short: "Select the game other commands act on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			g, err := st.UseGame(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, gameView{Game: g, Current: true})
		},
	}
}
