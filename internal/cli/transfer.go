package cli

import (
	"encoding/json"
	"strings"

	"cuesheet/internal/store"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current game (events and view) as JSON",
		Example: strings.TrimSpace(`
cuesheet export --out hawks-owls.json
cuesheet --game "Hawks vs Owls" export | cuesheet --dir ../other import -
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, g, err := openGame(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ex, err := st.ExportGame(ctx, g.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if out == "" || out == "-" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(ex); err != nil {
					return writeErr(cmd, err)
				}
				return nil
			}
			if err := store.WriteExport(out, ex); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"game": g, "events": len(ex.Events), "path": out})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	var use bool

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import an exported game as a new game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var ex store.GameExport
			if args[0] == "-" {
				if err := json.NewDecoder(cmd.InOrStdin()).Decode(&ex); err != nil {
					return writeErr(cmd, err)
				}
			} else if ex, err = store.ReadExport(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			g, err := st.ImportGame(ctx, ex)
			if err != nil {
				return writeErr(cmd, err)
			}
			if use {
				if _, err := st.UseGame(ctx, g.ID); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, gameView{Game: g, Current: use})
		},
	}

	cmd.Flags().BoolVar(&use, "use", false, "Make the imported game current")
	return cmd
}

func newBackupCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <dest.sqlite>",
		Short: "Write a consistent copy of the whole store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := st.Backup(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"source": st.Path(), "path": args[0]})
		},
	}
}
