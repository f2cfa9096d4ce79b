package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuesheet/internal/config"
	"cuesheet/internal/format"
	"cuesheet/internal/logging"
	"cuesheet/internal/model"
	"cuesheet/internal/store"
	"cuesheet/internal/timeline"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Game       string
	ConfigPath string
	PrettyJSON bool
	Format     string

	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "cuesheet",
		Short:        "Production script timeline for live sports broadcasts (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive canvas for the current game
  cuesheet

  # Set up a game and make it current
  cuesheet games create "Hawks vs Owls" --kickoff "2026-10-17 19:00" --use

  # Place a sponsor read at 12:30 from the element library
  cuesheet events add --template "Sponsor Read" --start 12:30 --set tagline="Built to last."

  # Serve the canvas in a browser
  cuesheet web
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.closer != nil {
			return app.closer.Close()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("CUESHEET_DIR", ""), "Path to the store dir (default: nearest .cuesheet, or store_dir from config)")
	cmd.PersistentFlags().StringVar(&app.Game, "game", envOr("CUESHEET_GAME", ""), "Game id or name (default: the game selected with `games use`)")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("CUESHEET_CONFIG", ""), "Path to config.toml (default: ~/.cuesheet/config.toml)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CUESHEET_FORMAT", "auto"), "Output format (auto|json|edn|table)")

	cmd.AddCommand(newGamesCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newTemplatesCmd(app))
	cmd.AddCommand(newLanesCmd(app))
	cmd.AddCommand(newRenderCmd(app))
	cmd.AddCommand(newLogCmd(app))
	cmd.AddCommand(newTUICmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// config loads the configuration once per invocation.
func (app *App) config() (*config.Config, error) {
	if app.cfg != nil {
		return app.cfg, nil
	}
	cfg, _, _, err := config.Load(app.ConfigPath)
	if err != nil {
		return nil, err
	}
	app.cfg = cfg
	return cfg, nil
}

// log returns the stderr logger for one-shot commands.
func (app *App) log() (*slog.Logger, error) {
	if app.logger != nil {
		return app.logger, nil
	}
	cfg, err := app.config()
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	app.logger, app.closer = logger, closer
	return logger, nil
}

func (app *App) lanes() (*timeline.LaneSet, error) {
	cfg, err := app.config()
	if err != nil {
		return nil, err
	}
	return cfg.LaneSet()
}

// openStore resolves the store dir: --dir, then store_dir from config, then
// the nearest .cuesheet directory.
func openStore(app *App) (store.Store, error) {
	dir := strings.TrimSpace(app.Dir)
	if dir == "" {
		cfg, err := app.config()
		if err != nil {
			return store.Store{}, err
		}
		dir = strings.TrimSpace(cfg.StoreDir)
	}
	var err error
	if dir == "" {
		dir, err = store.DefaultDir()
	} else {
		dir, err = config.ExpandPath(dir)
	}
	if err != nil {
		return store.Store{}, err
	}
	app.Dir = dir
	return store.Store{Dir: dir}, nil
}

// resolveGame picks the game a command acts on: --game, then the game chosen
// with `games use`, then default_game from config, then the only game.
func resolveGame(ctx context.Context, app *App, st store.Store) (model.Game, error) {
	if ref := strings.TrimSpace(app.Game); ref != "" {
		return st.FindGame(ctx, ref)
	}
	g, ok, err := st.CurrentGame(ctx)
	if err != nil {
		return model.Game{}, err
	}
	if ok {
		return g, nil
	}
	cfg, err := app.config()
	if err != nil {
		return model.Game{}, err
	}
	if ref := strings.TrimSpace(cfg.DefaultGame); ref != "" {
		return st.FindGame(ctx, ref)
	}
	games, err := st.ListGames(ctx)
	if err != nil {
		return model.Game{}, err
	}
	if len(games) == 1 {
		return games[0], nil
	}
	return model.Game{}, errNoGame(len(games))
}

// openGame is openStore plus resolveGame, the preamble of most commands.
func openGame(ctx context.Context, app *App) (store.Store, model.Game, error) {
	st, err := openStore(app)
	if err != nil {
		return store.Store{}, model.Game{}, err
	}
	g, err := resolveGame(ctx, app, st)
	if err != nil {
		return st, model.Game{}, err
	}
	return st, g, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut wraps v in the {"data": ...} envelope. Tables print v directly when
// it is tabular; hints then go to stderr.
func writeOut(cmd *cobra.Command, app *App, v any, hints ...string) error {
	w := cmd.OutOrStdout()
	f, err := format.Resolve(app.Format, w)
	if err != nil {
		return writeErr(cmd, err)
	}
	if t, ok := v.(format.Tabular); ok && f == format.Table {
		if err := format.WriteTable(w, t); err != nil {
			return err
		}
		for _, h := range hints {
			fmt.Fprintln(cmd.ErrOrStderr(), "hint:", h)
		}
		return nil
	}
	env := map[string]any{"data": v}
	if len(hints) > 0 {
		env["_hints"] = hints
	}
	return format.Write(w, env, f, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
