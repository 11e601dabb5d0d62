// Package config loads rhi backend settings from TOML.
//
// A configuration file looks like:
//
//	driver = "gles"
//	debug = true
//	check_errors = true
//	log_level = "debug"
//
//	[perf]
//	enabled = true
//	ring_size = 256
//
//	[shader]
//	glsl_version = "330"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/naga/glsl"
)

// Errors returned by Load and Validate.
var (
	ErrUnknownKey  = errors.New("config: unknown key")
	ErrInvalid     = errors.New("config: invalid value")
	ErrUnsupported = errors.New("config: unsupported glsl version")
)

// Config holds backend settings.
type Config struct {
	// Driver selects a registered driver by name. Empty picks the best one.
	Driver string `toml:"driver"`
	// Debug escalates native driver errors to fatal assertions.
	Debug bool `toml:"debug"`
	// CheckErrors polls the driver error queue after every operation group.
	CheckErrors bool `toml:"check_errors"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// InitialSlots is the starting capacity of the resource pool.
	InitialSlots int `toml:"initial_slots"`
	// Multisample allows render targets with more than one sample.
	Multisample bool `toml:"multisample"`

	Perf   Perf   `toml:"perf"`
	Shader Shader `toml:"shader"`
}

// Perf configures GPU perf markers.
type Perf struct {
	Enabled bool `toml:"enabled"`
	// RingSize is the marker capacity of each of the two frame buffers.
	RingSize int `toml:"ring_size"`
}

// Shader configures WGSL translation.
type Shader struct {
	// GLSLVersion is "330", "410", "430", "450", "300es" or "310es".
	GLSLVersion string `toml:"glsl_version"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		LogLevel:     "warn",
		InitialSlots: 64,
		Multisample:  true,
		Perf: Perf{
			Enabled:  true,
			RingSize: 256,
		},
		Shader: Shader{GLSLVersion: "330"},
	}
}

// Load reads path on top of Default. Keys the Config does not know about
// are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: %s in %s", ErrUnknownKey, undecoded[0], path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses TOML text on top of Default.
func Decode(text string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownKey, undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.InitialSlots < 1 {
		return fmt.Errorf("%w: initial_slots = %d", ErrInvalid, c.InitialSlots)
	}
	if c.Perf.RingSize < 1 {
		return fmt.Errorf("%w: perf.ring_size = %d", ErrInvalid, c.Perf.RingSize)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.GLSLVersion(); err != nil {
		return err
	}
	return nil
}

// Level returns LogLevel as a slog level.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: log_level = %q", ErrInvalid, c.LogLevel)
	}
}

// GLSLVersion returns the configured GLSL dialect.
func (c Config) GLSLVersion() (glsl.Version, error) {
	switch strings.ToLower(c.Shader.GLSLVersion) {
	case "", "330":
		return glsl.Version330, nil
	case "410":
		return glsl.Version410, nil
	case "430":
		return glsl.Version430, nil
	case "450":
		return glsl.Version450, nil
	case "300es":
		return glsl.VersionES300, nil
	case "310es":
		return glsl.VersionES310, nil
	default:
		return glsl.Version{}, fmt.Errorf("%w: %q", ErrUnsupported, c.Shader.GLSLVersion)
	}
}
