package config

import "cuesheet/internal/timeline"

const (
	defaultWebAddr      = "127.0.0.1:7878"
	defaultLogLevel     = "info"
	defaultLogFormat    = "console"
	defaultLibraryWidth = 28
)

// Default returns the built-in configuration.
func Default() Config {
	z := timeline.DefaultZoom()
	return Config{
		FallbackLane: timeline.LaneGeneral,
		Lanes:        timeline.DefaultLanes(),
		LaneRules:    timeline.DefaultLaneRules(),
		View: View{
			Orientation: timeline.Horizontal.String(),
			Interval:    timeline.Interval1m.String(),
			Zoom:        z.Level,
			ZoomStep:    z.Step,
			MinZoom:     z.Min,
			MaxZoom:     z.Max,
		},
		Metrics: timeline.DefaultMetrics(),
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Web: Web{Addr: defaultWebAddr},
		TUI: TUI{
			LibraryWidth: defaultLibraryWidth,
			CellWidth:    8,
			CellHeight:   16,
		},
	}
}
