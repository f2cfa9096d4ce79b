package config

import (
	"fmt"
	"strings"

	"cuesheet/internal/timeline"
)

func (c *Config) normalize() error {
	var err error
	if c.StoreDir, err = expandPath(strings.TrimSpace(c.StoreDir)); err != nil {
		return fmt.Errorf("store_dir: %w", err)
	}
	c.DefaultGame = strings.TrimSpace(c.DefaultGame)
	c.normalizeLanes()
	c.normalizeView()
	c.normalizeMetrics()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Web.Addr) == "" {
		c.Web.Addr = defaultWebAddr
	}
	if c.TUI.LibraryWidth <= 0 {
		c.TUI.LibraryWidth = defaultLibraryWidth
	}
	if c.TUI.CellWidth <= 0 {
		c.TUI.CellWidth = 8
	}
	if c.TUI.CellHeight <= 0 {
		c.TUI.CellHeight = 16
	}
	return nil
}

func (c *Config) normalizeLanes() {
	if len(c.Lanes) == 0 {
		c.Lanes = timeline.DefaultLanes()
	}
	known := make(map[string]bool, len(c.Lanes))
	for i := range c.Lanes {
		c.Lanes[i].ID = strings.TrimSpace(c.Lanes[i].ID)
		known[c.Lanes[i].ID] = true
	}
	if len(c.LaneRules) == 0 {
		for _, r := range timeline.DefaultLaneRules() {
			if known[r.LaneID] {
				c.LaneRules = append(c.LaneRules, r)
			}
		}
	}
	c.FallbackLane = strings.TrimSpace(c.FallbackLane)
	if c.FallbackLane == "" && known[timeline.LaneGeneral] {
		c.FallbackLane = timeline.LaneGeneral
	}
}

func (c *Config) normalizeView() {
	d := Default().View
	c.View.Orientation = strings.ToLower(strings.TrimSpace(c.View.Orientation))
	if c.View.Orientation == "" {
		c.View.Orientation = d.Orientation
	}
	c.View.Interval = strings.ToLower(strings.TrimSpace(c.View.Interval))
	if c.View.Interval == "" {
		c.View.Interval = d.Interval
	}
	if c.View.Zoom <= 0 {
		c.View.Zoom = d.Zoom
	}
	if c.View.ZoomStep <= 0 {
		c.View.ZoomStep = d.ZoomStep
	}
	if c.View.MinZoom <= 0 {
		c.View.MinZoom = d.MinZoom
	}
	if c.View.MaxZoom <= 0 {
		c.View.MaxZoom = d.MaxZoom
	}
}

func (c *Config) normalizeMetrics() {
	d := timeline.DefaultMetrics()
	m := &c.Metrics
	if m.BasePixelsPerMinute <= 0 {
		m.BasePixelsPerMinute = d.BasePixelsPerMinute
	}
	if m.HeaderSize < 0 {
		m.HeaderSize = d.HeaderSize
	}
	if m.RulerSize < 0 {
		m.RulerSize = d.RulerSize
	}
	if m.MinEventWidth <= 0 {
		m.MinEventWidth = d.MinEventWidth
	}
	if m.BlockInset < 0 {
		m.BlockInset = d.BlockInset
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
