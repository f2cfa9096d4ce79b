package cli

import (
	"strings"

	"cuesheet/internal/model"
	"cuesheet/internal/timeline"

	"github.com/spf13/cobra"
)

func newTemplatesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"library"},
		Short:   "Element library commands",
	}
	cmd.AddCommand(newTemplatesListCmd(app))
	cmd.AddCommand(newTemplatesAddCmd(app))
	cmd.AddCommand(newTemplatesImportCmd(app))
	cmd.AddCommand(newTemplatesRmCmd(app))
	cmd.AddCommand(newTemplatesSeedCmd(app))
	return cmd
}

func newTemplatesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List element library templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tpls, err := st.ListTemplates(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, templateList(tpls))
		},
	}
}

func newTemplatesAddCmd(app *App) *cobra.Command {
	var (
		id          string
		name        string
		typ         string
		duration    string
		sponsor     string
		text        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a template",
		Example: strings.TrimSpace(`
cuesheet templates add --name "Acme Read" --type "Sponsor Read" --duration 30 \
  --sponsor Acme --text "Brought to you by {sponsor}. {tagline}"
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t := model.Template{
				ID:          strings.TrimSpace(id),
				Name:        strings.TrimSpace(name),
				Type:        strings.TrimSpace(typ),
				SponsorName: strings.TrimSpace(sponsor),
				Text:        text,
				Description: description,
			}
			if duration != "" {
				if t.DefaultDurationSeconds, err = timeline.ParseDuration(duration); err != nil {
					return writeErr(cmd, errInvalid("duration", "%v", err))
				}
			}
			saved, err := st.UpsertTemplate(cmd.Context(), t)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, saved)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Template id to replace (default: new)")
	cmd.Flags().StringVar(&name, "name", "", "Template name")
	cmd.Flags().StringVar(&typ, "type", "", "Element type, e.g. \"Graphic\"")
	cmd.Flags().StringVar(&duration, "duration", "", "Default duration (seconds, MM:SS or 2m30s)")
	cmd.Flags().StringVar(&sponsor, "sponsor", "", "Sponsor name, fills {sponsor}")
	cmd.Flags().StringVar(&text, "text", "", "Script text with {placeholders}")
	cmd.Flags().StringVar(&description, "description", "", "Library description")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTemplatesImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml|file.json>",
		Short: "Import a template library file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tpls, err := st.ImportTemplates(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, templateList(tpls))
		},
	}
}

func newTemplatesRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <template>",
		Aliases: []string{"delete"},
		Short:   "Delete a template (events created from it are kept)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := st.FindTemplate(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := st.DeleteTemplate(ctx, t.ID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"id": t.ID, "deleted": true})
		},
	}
}

func newTemplatesSeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the built-in templates into an empty library",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := st.SeedTemplates(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"added": n})
		},
	}
}
