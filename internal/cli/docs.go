package cli

import (
	"fmt"
	"strings"

	"cuesheet/internal/docs"
	"cuesheet/internal/format"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in help topics",
		Args:  cobra.MaximumNArgs(1),
		Example: strings.TrimSpace(`
cuesheet docs
cuesheet docs templates
cuesheet docs keys --raw
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, topicList(docs.Topics()), "cuesheet docs <topic>")
			}
			body, ok := docs.Get(args[0])
			if !ok {
				names := make([]string, 0)
				for _, t := range docs.Topics() {
					names = append(names, t.Name)
				}
				return writeErr(cmd, errInvalid("topic", "unknown topic %q (want %s)", args[0], strings.Join(names, "|")))
			}
			w := cmd.OutOrStdout()
			if !raw && format.IsTerminal(w) {
				if out, err := glamour.Render(body, "dark"); err == nil {
					body = out
				}
			}
			_, err := fmt.Fprint(w, body)
			return err
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without terminal styling")
	return cmd
}
