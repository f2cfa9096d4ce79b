package cli

import (
	"strings"

	"cuesheet/internal/config"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	cmd.AddCommand(newConfigInitCmd(app))
	cmd.AddCommand(newConfigShowCmd(app))
	return cmd
}

func newConfigInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented sample config.toml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(app.ConfigPath)
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return writeErr(cmd, err)
				}
			}
			if err := config.WriteSample(path); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"path": path})
		},
	}
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := config.Load(app.ConfigPath)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := toml.Marshal(cfg)
			if err != nil {
				return writeErr(cmd, err)
			}
			w := cmd.OutOrStdout()
			if exists {
				_, err = w.Write([]byte("# loaded from " + resolved + "\n"))
			} else {
				_, err = w.Write([]byte("# defaults (" + resolved + " does not exist)\n"))
			}
			if err != nil {
				return err
			}
			_, err = w.Write(b)
			return err
		},
	}
}
