package tui

import (
	"context"
	"log/slog"
	"math"

	"cuesheet/internal/config"
	"cuesheet/internal/model"
	"cuesheet/internal/store"
	"cuesheet/internal/timeline"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Store  store.Store
	Game   model.Game
	Config *config.Config
	Logger *slog.Logger
}

// Run opens the interactive canvas for one game and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()

	m, err := newAppModel(ctx, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	).Run()
	return err
}

// RenderText rasterizes a frame onto a terminal grid, one cell per
// cellW x cellH pixels. With styled false only glyphs are emitted.
func RenderText(logger *slog.Logger, f timeline.Frame, cellW, cellH float64, styled bool) string {
	if cellW <= 0 {
		cellW = 8
	}
	if cellH <= 0 {
		cellH = 16
	}
	cols := int(math.Ceil(f.Width / cellW))
	rows := int(math.Ceil(f.Height / cellH))
	s := newCellSurface(cols, rows, cellW, cellH)
	timeline.Paint(logger, s, f)
	if styled {
		return s.Render()
	}
	return s.Plain()
}
