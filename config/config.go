// Package config holds the YAML configuration of the shadergraph tools.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Config is the top-level YAML structure.
type Config struct {
	Window  WindowConf  `yaml:"window"`
	Preview PreviewConf `yaml:"preview"`
	Swatch  SwatchConf  `yaml:"swatch"`
	Log     LogConf     `yaml:"log"`
	Metrics MetricsConf `yaml:"metrics"`
	Input   InputConf   `yaml:"input"`
}

// WindowConf sizes the preview window.
type WindowConf struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Title     string `yaml:"title"`
	FrameRate int    `yaml:"frame_rate"`
}

// PreviewConf sizes the offscreen cube and sphere previews.
type PreviewConf struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Seconds is the clock value used for headless snapshots and swatches.
	Seconds float32 `yaml:"seconds"`
}

type SwatchConf struct {
	Size     int     `yaml:"size"`
	FontSize float64 `yaml:"font_size"`
	NoLabel  bool    `yaml:"no_label"`
}

type LogConf struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`
}

type MetricsConf struct {
	// Addr is the listen address of the metrics endpoint. Empty disables it.
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

type InputConf struct {
	EmulateThreeButtonMouse bool    `yaml:"emulate_three_button_mouse"`
	DragSensitivity         float64 `yaml:"drag_sensitivity"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Window.Width == 0 {
		cfg.Window.Width = 1600
	}
	if cfg.Window.Height == 0 {
		cfg.Window.Height = 600
	}
	if cfg.Window.Title == "" {
		cfg.Window.Title = "shadergraph"
	}
	if cfg.Window.FrameRate == 0 {
		cfg.Window.FrameRate = 60
	}
	if cfg.Preview.Width == 0 {
		cfg.Preview.Width = 800
	}
	if cfg.Preview.Height == 0 {
		cfg.Preview.Height = 600
	}
	if cfg.Swatch.Size == 0 {
		cfg.Swatch.Size = 256
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Input.DragSensitivity == 0 {
		cfg.Input.DragSensitivity = 0.005
	}
}

// Validate reports every invalid field found.
func (cfg *Config) Validate() error {
	var errs []string
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %d", name, v))
		}
	}
	positive("window.width", cfg.Window.Width)
	positive("window.height", cfg.Window.Height)
	positive("window.frame_rate", cfg.Window.FrameRate)
	positive("preview.width", cfg.Preview.Width)
	positive("preview.height", cfg.Preview.Height)
	positive("swatch.size", cfg.Swatch.Size)
	if cfg.Preview.Seconds < 0 {
		errs = append(errs, "preview.seconds must not be negative")
	}
	if cfg.Input.DragSensitivity < 0 {
		errs = append(errs, "input.drag_sensitivity must not be negative")
	}
	if cfg.Swatch.FontSize < 0 {
		errs = append(errs, "swatch.font_size must not be negative")
	}
	if _, err := cfg.Log.SlogLevel(); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.Metrics.Addr != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, fmt.Sprintf("metrics.path must start with /, got %q", cfg.Metrics.Path))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(errs, "\n  - "))
	}
	return nil
}

// ErrInvalid is returned by [Config.Validate].
var ErrInvalid = errors.New("invalid config")

// SlogLevel parses Level.
func (lc LogConf) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(lc.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
