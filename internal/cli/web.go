package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"cuesheet/internal/web"

	"github.com/spf13/cobra"
)

func newWebCmd(app *App) *cobra.Command {
	var (
		addr     string
		readOnly bool
		open     bool
	)

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the timeline canvas over HTTP",
		Long: strings.TrimSpace(`
Serve the timeline canvas from a local HTTP server.

Each game page streams the canvas as SVG over server-sent events and posts
pointer, drag and keyboard input back, so it behaves like the terminal UI.
Writes from other processes (the CLI, another TUI) show up live.
`),
		Example: strings.TrimSpace(`
# Serve on the configured address (default 127.0.0.1:7878)
cuesheet web

# Share a read-only view on the local network
cuesheet web --addr :7878 --read-only
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg, err := app.config()
			if err != nil {
				return writeErr(cmd, err)
			}
			logger, err := app.log()
			if err != nil {
				return writeErr(cmd, err)
			}

			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = cfg.Web.Addr
			}
			if listenAddr == "" {
				return writeErr(cmd, errors.New("web: missing --addr"))
			}

			srv, err := web.NewServer(web.ServerConfig{
				Addr:     listenAddr,
				Store:    st,
				Config:   cfg,
				Logger:   logger,
				ReadOnly: readOnly,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			url := "http://" + displayHost(listenAddr) + "/"
			fmt.Fprintf(cmd.ErrOrStderr(), "cuesheet web running at %s (store=%s)\n", url, st.Dir)
			if open {
				time.AfterFunc(300*time.Millisecond, func() {
					if err := openPath(url); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Failed to open browser: %s\n", err)
					}
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port or :port; default from config)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Serve a view-only canvas: edits and view changes are rejected")
	cmd.Flags().BoolVar(&open, "open", false, "Open the UI in your default browser")
	return cmd
}

// displayHost turns ":7878" into "localhost:7878" for printing.
func displayHost(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func openPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("empty path")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Run()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path).Run()
	default:
		return exec.Command("xdg-open", path).Run()
	}
}
