// Package config loads the optional fwt configuration file, which holds
// defaults for command-line flags and colour overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the optional fwt configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults. Nil means "not set" so
// the flag's own default applies.
type DefaultsConfig struct {
	DB            *string  `toml:"db"`
	ICase         *bool    `toml:"icase"`
	Exclude       []string `toml:"exclude"`
	Strict        *bool    `toml:"strict"`
	TimeTolerance *string  `toml:"time_tolerance"`
	BatchSize     *int     `toml:"batch_size"`
	PreserveTimes *bool    `toml:"preserve_times"`
	BWLimit       *string  `toml:"bwlimit"`
	Color         *string  `toml:"color"`
}

// ThemeConfig holds optional color overrides.
type ThemeConfig struct {
	Green  *string `toml:"green"`
	Blue   *string `toml:"blue"`
	Yellow *string `toml:"yellow"`
	Red    *string `toml:"red"`
	Mauve  *string `toml:"mauve"`
	Muted  *string `toml:"muted"`
	Bright *string `toml:"bright"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "fwt", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path. A missing file yields a zero
// Config.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %s", path, undecoded[0])
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := c.Defaults.Tolerance(); err != nil {
		return err
	}
	if c.Defaults.BatchSize != nil && *c.Defaults.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", *c.Defaults.BatchSize)
	}
	if c.Defaults.Color != nil {
		switch *c.Defaults.Color {
		case "auto", "always", "never":
		default:
			return fmt.Errorf("color must be auto, always or never, got %q", *c.Defaults.Color)
		}
	}
	return nil
}

// Tolerance parses time_tolerance. Zero means unset.
func (d DefaultsConfig) Tolerance() (time.Duration, error) {
	if d.TimeTolerance == nil {
		return 0, nil
	}
	v, err := time.ParseDuration(*d.TimeTolerance)
	if err != nil {
		return 0, fmt.Errorf("time_tolerance: %w", err)
	}
	if v < 0 {
		return 0, fmt.Errorf("time_tolerance must not be negative, got %s", v)
	}
	return v, nil
}
