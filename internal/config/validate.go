package config

import (
	"errors"
	"fmt"

	"cuesheet/internal/timeline"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.LaneSet(); err != nil {
		return err
	}
	if err := c.validateView(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateView() error {
	if _, err := timeline.ParseOrientation(c.View.Orientation); err != nil {
		return fmt.Errorf("view.orientation: %w", err)
	}
	if _, err := timeline.ParseInterval(c.View.Interval); err != nil {
		return fmt.Errorf("view.interval: %w", err)
	}
	if c.View.ZoomStep <= 1 {
		return errors.New("view.zoom_step must be greater than 1")
	}
	if c.View.MinZoom > c.View.MaxZoom {
		return fmt.Errorf("view.min_zoom (%g) must not exceed view.max_zoom (%g)", c.View.MinZoom, c.View.MaxZoom)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug|info|warn|error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
