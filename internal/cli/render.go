package cli

import (
	"fmt"
	"os"
	"strings"

	"cuesheet/internal/format"
	"cuesheet/internal/svgsurface"
	"cuesheet/internal/timeline"
	"cuesheet/internal/tui"

	"github.com/spf13/cobra"
)

const defaultRenderLength = 1200

func newRenderCmd(app *App) *cobra.Command {
	var (
		as          string
		out         string
		width       float64
		height      float64
		zoom        float64
		interval    string
		orientation string
		from        string
		fresh       bool
		color       string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the current game's timeline as text or SVG",
		Long: strings.TrimSpace(`
Render the current game's timeline once, with the game's remembered view
(zoom, interval, orientation, scroll) unless overridden by flags.

--format text draws on a terminal cell grid; --format svg writes an SVG
document. The lane axis defaults to the size that fits every lane.
`),
		Example: strings.TrimSpace(`
cuesheet render
cuesheet render --format svg --out timeline.svg --interval 5 --from 45:00
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, g, err := openGame(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg, err := app.config()
			if err != nil {
				return writeErr(cmd, err)
			}
			lanes, err := cfg.LaneSet()
			if err != nil {
				return writeErr(cmd, err)
			}
			logger, err := app.log()
			if err != nil {
				return writeErr(cmd, err)
			}
			events, err := st.ListEvents(ctx, g.ID)
			if err != nil {
				return writeErr(cmd, err)
			}

			v := cfg.Viewport(0, 0)
			if !fresh {
				vs, ok, err := st.LoadViewState(ctx, g.ID)
				if err != nil {
					return writeErr(cmd, err)
				}
				if ok {
					v = vs.Apply(v)
				}
			}
			if orientation != "" {
				if v.Orientation, err = timeline.ParseOrientation(orientation); err != nil {
					return writeErr(cmd, errInvalid("orientation", "%v", err))
				}
			}
			if interval != "" {
				if v.Interval, err = timeline.ParseInterval(interval); err != nil {
					return writeErr(cmd, errInvalid("interval", "%v", err))
				}
			}
			if zoom > 0 {
				v.Zoom.Level = zoom
				v.Zoom = v.Zoom.Clamp()
			}
			if from != "" {
				if v.Origin, err = timeline.ParseOffset(from); err != nil {
					return writeErr(cmd, errInvalid("from", "%v", err))
				}
			}
			v.Width, v.Height = renderSize(v, lanes, width, height)

			kind := strings.ToLower(strings.TrimSpace(as))
			if kind != "text" && kind != "svg" {
				return writeErr(cmd, errInvalid("format", "unknown render format %q (want text|svg)", as))
			}
			measurer := timeline.MonoMeasurer{}
			if kind == "text" {
				measurer.CellWidth = cfg.TUI.CellWidth
			}
			f := timeline.Render(timeline.RenderInput{
				Events:   events,
				Viewport: v,
				Lanes:    lanes,
				Measurer: measurer,
				Theme:    timeline.DefaultTheme(),
			})

			w := cmd.OutOrStdout()
			var file *os.File
			if out != "" && out != "-" {
				if file, err = os.Create(out); err != nil {
					return writeErr(cmd, err)
				}
				defer file.Close()
				w = file
			}

			var doc string
			if kind == "svg" {
				doc = svgsurface.Render(logger, f)
			} else {
				styled := format.IsTerminal(w)
				switch color {
				case "always":
					styled = true
				case "never":
					styled = false
				}
				doc = tui.RenderText(logger, f, cfg.TUI.CellWidth, cfg.TUI.CellHeight, styled)
			}
			if !strings.HasSuffix(doc, "\n") {
				doc += "\n"
			}
			if _, err := fmt.Fprint(w, doc); err != nil {
				return writeErr(cmd, err)
			}
			if file != nil {
				return file.Close()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&as, "format", "text", "Render format (text|svg)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	cmd.Flags().Float64Var(&width, "width", 0, "Canvas width in pixels (0 = fit)")
	cmd.Flags().Float64Var(&height, "height", 0, "Canvas height in pixels (0 = fit)")
	cmd.Flags().Float64Var(&zoom, "zoom", 0, "Zoom level (0 = remembered)")
	cmd.Flags().StringVar(&interval, "interval", "", "Ruler interval (15s|30s|1|5|15|30|60)")
	cmd.Flags().StringVar(&orientation, "orientation", "", "horizontal|vertical")
	cmd.Flags().StringVar(&from, "from", "", "Game-clock offset at the start of the time axis")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Ignore the game's remembered view")
	cmd.Flags().StringVar(&color, "color", "auto", "Colored text output (auto|always|never)")
	return cmd
}

// renderSize fills unset dimensions: the lane axis fits every lane and the
// time axis gets a fixed length.
func renderSize(v timeline.Viewport, lanes *timeline.LaneSet, width, height float64) (float64, float64) {
	cross := v.Metrics.RulerSize + lanes.Extent()
	if v.Orientation == timeline.Vertical {
		if width <= 0 {
			width = cross
		}
		if height <= 0 {
			height = defaultRenderLength
		}
		return width, height
	}
	if width <= 0 {
		width = defaultRenderLength
	}
	if height <= 0 {
		height = cross
	}
	return width, height
}
