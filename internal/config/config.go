package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuesheet/internal/timeline"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const configFileName = "config.toml"

// View holds the initial canvas view for games without a remembered one.
type View struct {
	Orientation string  `toml:"orientation"`
	Interval    string  `toml:"interval"`
	Zoom        float64 `toml:"zoom"`
	ZoomStep    float64 `toml:"zoom_step"`
	MinZoom     float64 `toml:"min_zoom"`
	MaxZoom     float64 `toml:"max_zoom"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File receives logs from the TUI, which owns stdout.
	File string `toml:"file"`
}

type Web struct {
	Addr string `toml:"addr"`
}

type TUI struct {
	LibraryWidth int `toml:"library_width"`
	// CellWidth and CellHeight map terminal cells to canvas pixels.
	CellWidth  float64 `toml:"cell_width"`
	CellHeight float64 `toml:"cell_height"`
}

type Config struct {
	StoreDir     string              `toml:"store_dir"`
	DefaultGame  string              `toml:"default_game"`
	FallbackLane string              `toml:"fallback_lane"`
	Lanes        []timeline.Lane     `toml:"lanes"`
	LaneRules    []timeline.LaneRule `toml:"lane_rules"`
	View         View                `toml:"view"`
	Metrics      timeline.Metrics    `toml:"metrics"`
	Logging      Logging             `toml:"logging"`
	Web          Web                 `toml:"web"`
	TUI          TUI                 `toml:"tui"`
}

// Dir is the per-user configuration directory.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("CUESHEET_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cuesheet"), nil
}

func DefaultConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the configuration at path, or the default path when path is
// empty. A missing file is not an error; exists reports whether one was read.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	c := Default()
	// Lane tables replace the built-ins wholesale; normalize restores them when absent.
	c.Lanes, c.LaneRules, c.FallbackLane = nil, nil, ""

	resolved, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&c); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := c.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := c.Validate(); err != nil {
		return nil, "", false, err
	}
	return &c, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// SampleConfig returns a commented config file listing every setting.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes SampleConfig to path unless a file already exists.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config %s already exists", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return err
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// LaneSet builds the lane model from the configured lanes and rules.
func (c *Config) LaneSet() (*timeline.LaneSet, error) {
	return timeline.NewLaneSet(c.Lanes, c.LaneRules, c.FallbackLane)
}

// Viewport is the configured initial view for a surface of the given size.
// Values are validated by Load, so parse failures fall back to defaults.
func (c *Config) Viewport(width, height float64) timeline.Viewport {
	v := timeline.DefaultViewport(width, height)
	if o, err := timeline.ParseOrientation(c.View.Orientation); err == nil {
		v.Orientation = o
	}
	if iv, err := timeline.ParseInterval(c.View.Interval); err == nil {
		v.Interval = iv
	}
	v.Zoom = timeline.Zoom{
		Level: c.View.Zoom,
		Step:  c.View.ZoomStep,
		Min:   c.View.MinZoom,
		Max:   c.View.MaxZoom,
	}.Clamp()
	v.Metrics = c.Metrics
	return v
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath resolves ~ and relative paths the way config values are resolved.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
