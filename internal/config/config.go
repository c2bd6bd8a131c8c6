package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything simdeck reads from config.toml.
type Config struct {
	EngineURL    string
	Simulation   string
	LogDir       string
	ProfilesPath string

	DevicePixelRatio float64
	CellWidth        float64
	CellHeight       float64

	AutoHideDelay   time.Duration
	CursorHideDelay time.Duration

	ZoomSensitivity float64
	WheelStep       float64

	// ResyncInterval is zero when periodic resync is disabled.
	ResyncInterval time.Duration
	Journal        bool
}

const (
	defaultConfigPath       = "~/.config/simdeck/config.toml"
	defaultLogDir           = "~/.local/share/simdeck/logs"
	defaultEngineURL        = "ws://127.0.0.1:7878/engine"
	defaultSimulation       = "gray-scott"
	defaultDevicePixelRatio = 1.0
	defaultCellWidth        = 8.0
	defaultCellHeight       = 16.0
	defaultAutoHideDelay    = 3 * time.Second
	defaultCursorHideDelay  = 2 * time.Second
	defaultZoomSensitivity  = 0.001
	defaultWheelStep        = 100.0
	defaultResyncInterval   = 5 * time.Second
)

type rawConfig struct {
	EngineURL        string  `toml:"engine_url"`
	Simulation       string  `toml:"simulation"`
	LogDir           string  `toml:"log_dir"`
	ProfilesPath     string  `toml:"profiles_path"`
	DevicePixelRatio float64 `toml:"device_pixel_ratio"`
	CellWidth        float64 `toml:"cell_width"`
	CellHeight       float64 `toml:"cell_height"`
	ResyncIntervalMS *int64  `toml:"resync_interval_ms"`
	Journal          bool    `toml:"journal"`

	AutoHide struct {
		DelayMS       int64 `toml:"delay_ms"`
		CursorDelayMS int64 `toml:"cursor_delay_ms"`
	} `toml:"autohide"`

	Pointer struct {
		ZoomSensitivity float64 `toml:"zoom_sensitivity"`
		WheelStep       float64 `toml:"wheel_step"`
	} `toml:"pointer"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		EngineURL:        defaultEngineURL,
		Simulation:       defaultSimulation,
		LogDir:           mustExpand(defaultLogDir),
		DevicePixelRatio: defaultDevicePixelRatio,
		CellWidth:        defaultCellWidth,
		CellHeight:       defaultCellHeight,
		AutoHideDelay:    defaultAutoHideDelay,
		CursorHideDelay:  defaultCursorHideDelay,
		ZoomSensitivity:  defaultZoomSensitivity,
		WheelStep:        defaultWheelStep,
		ResyncInterval:   defaultResyncInterval,
	}
}

// Load locates and parses the simdeck config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return raw.resolve()
}

func (raw rawConfig) resolve() (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(raw.EngineURL); v != "" {
		cfg.EngineURL = v
	}
	if v := strings.TrimSpace(raw.Simulation); v != "" {
		cfg.Simulation = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.ProfilesPath); v != "" {
		expanded, err := expandPath(v)
		if err != nil {
			return Config{}, fmt.Errorf("profiles_path: %w", err)
		}
		cfg.ProfilesPath = expanded
	}

	var errs []error
	positive := func(name string, v float64, dst *float64) {
		switch {
		case v < 0:
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		case v > 0:
			*dst = v
		}
	}
	positive("device_pixel_ratio", raw.DevicePixelRatio, &cfg.DevicePixelRatio)
	positive("cell_width", raw.CellWidth, &cfg.CellWidth)
	positive("cell_height", raw.CellHeight, &cfg.CellHeight)
	positive("pointer.zoom_sensitivity", raw.Pointer.ZoomSensitivity, &cfg.ZoomSensitivity)
	positive("pointer.wheel_step", raw.Pointer.WheelStep, &cfg.WheelStep)

	millis := func(name string, v int64, dst *time.Duration) {
		switch {
		case v < 0:
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		case v > 0:
			*dst = time.Duration(v) * time.Millisecond
		}
	}
	millis("autohide.delay_ms", raw.AutoHide.DelayMS, &cfg.AutoHideDelay)
	millis("autohide.cursor_delay_ms", raw.AutoHide.CursorDelayMS, &cfg.CursorHideDelay)

	if raw.ResyncIntervalMS != nil {
		cfg.ResyncInterval = 0
		millis("resync_interval_ms", *raw.ResyncIntervalMS, &cfg.ResyncInterval)
	}
	cfg.Journal = raw.Journal

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LogPath returns the path simdeck writes its own log to.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/simdeck.log")
	}
	return filepath.Join(c.LogDir, "simdeck.log")
}

// JournalDir returns the directory command journals are written to.
func (c Config) JournalDir() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/journal")
	}
	return filepath.Join(c.LogDir, "journal")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
