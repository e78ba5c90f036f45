// Package config loads client configuration.
//
// Precedence, lowest first: built-in defaults, an optional YAML file,
// RETRO_* environment variables. Command-line flags are applied on top by
// the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/theonlysinjin/team-retro/internal/canvas"
	"github.com/theonlysinjin/team-retro/internal/model"
	"github.com/theonlysinjin/team-retro/internal/presence"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RETRO_"

// Config is the client configuration.
type Config struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	PresenceTimeout   time.Duration `yaml:"presence_timeout"`

	CardWidth        float64 `yaml:"card_width"`
	CardHeight       float64 `yaml:"card_height"`
	OverlapThreshold float64 `yaml:"overlap_threshold"`
	GroupMargin      float64 `yaml:"group_margin"`
	StackOffsetX     float64 `yaml:"stack_offset_x"`
	StackOffsetY     float64 `yaml:"stack_offset_y"`
	BoardSize        float64 `yaml:"board_size"`

	PrefsPath string `yaml:"prefs_path"`
	BaseURL   string `yaml:"base_url"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	l := canvas.DefaultLayout()
	return Config{
		HeartbeatInterval: presence.DefaultInterval,
		PresenceTimeout:   presence.DefaultTimeout,
		CardWidth:         l.CardSize.W,
		CardHeight:        l.CardSize.H,
		OverlapThreshold:  l.OverlapThreshold,
		GroupMargin:       l.GroupMargin,
		StackOffsetX:      l.StackOffset.X,
		StackOffsetY:      l.StackOffset.Y,
		BoardSize:         l.BoardSize,
		PrefsPath:         defaultPrefsPath(),
		BaseURL:           "http://localhost:8081",
	}
}

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "team-retro", "prefs.db")
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from environment variables named
// RETRO_<YAML KEY IN UPPER CASE>, looked up through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	durations := map[string]*time.Duration{
		"HEARTBEAT_INTERVAL": &c.HeartbeatInterval,
		"PRESENCE_TIMEOUT":   &c.PresenceTimeout,
	}
	floats := map[string]*float64{
		"CARD_WIDTH":        &c.CardWidth,
		"CARD_HEIGHT":       &c.CardHeight,
		"OVERLAP_THRESHOLD": &c.OverlapThreshold,
		"GROUP_MARGIN":      &c.GroupMargin,
		"STACK_OFFSET_X":    &c.StackOffsetX,
		"STACK_OFFSET_Y":    &c.StackOffsetY,
		"BOARD_SIZE":        &c.BoardSize,
	}
	strs := map[string]*string{
		"PREFS_PATH": &c.PrefsPath,
		"BASE_URL":   &c.BaseURL,
	}

	for name, dst := range durations {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = d
		}
	}
	for name, dst := range floats {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	return nil
}

// Validate rejects non-positive sizes and intervals, and overlap
// thresholds outside (0, 1].
func (c Config) Validate() error {
	var errs []error
	if c.HeartbeatInterval <= 0 {
		errs = append(errs, fmt.Errorf("heartbeat_interval must be positive, got %s", c.HeartbeatInterval))
	}
	if c.PresenceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("presence_timeout must be positive, got %s", c.PresenceTimeout))
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"card_width", c.CardWidth},
		{"card_height", c.CardHeight},
		{"board_size", c.BoardSize},
	} {
		if f.v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %g", f.name, f.v))
		}
	}
	if c.GroupMargin < 0 {
		errs = append(errs, fmt.Errorf("group_margin must not be negative, got %g", c.GroupMargin))
	}
	if c.OverlapThreshold <= 0 || c.OverlapThreshold > 1 {
		errs = append(errs, fmt.Errorf("overlap_threshold must be in (0, 1], got %g", c.OverlapThreshold))
	}
	return errors.Join(errs...)
}

// Layout returns the spatial constants.
func (c Config) Layout() canvas.Layout {
	return canvas.Layout{
		CardSize:         canvas.Size{W: c.CardWidth, H: c.CardHeight},
		OverlapThreshold: c.OverlapThreshold,
		GroupMargin:      c.GroupMargin,
		StackOffset:      model.Position{X: c.StackOffsetX, Y: c.StackOffsetY},
		BoardSize:        c.BoardSize,
	}
}
