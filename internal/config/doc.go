// Package config loads, normalizes, and validates cuesheet configuration.
//
// Settings come from a TOML file (by default ~/.cuesheet/config.toml, or
// $CUESHEET_CONFIG_DIR/config.toml). Missing keys keep the values from
// Default. The lane table, classification rules and canvas metrics can all be
// overridden here; everything else in the program reads them through
// Config.LaneSet and Config.Viewport.
package config
