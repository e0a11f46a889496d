package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults for the bridge. The port matches what OSC hosts such as
// Max/MSP and TouchOSC listen on out of the box.
const (
	DefaultHost            = "localhost"
	DefaultPort            = 8000
	DefaultMissThreshold   = 5
	DefaultPurgeMultiplier = 2
	DefaultStatsInterval   = time.Second
	DefaultSource          = "synthetic"
)

// Config is the bridge configuration. Every field is optional: nil means
// "use the default", and the Get* accessors supply it. Layers are applied
// in order: JSON file, HANDOSC_* environment, command-line flags.
type Config struct {
	Host      *string `json:"host,omitempty" env:"HANDOSC_HOST"`
	Port      *int    `json:"port,omitempty" env:"HANDOSC_PORT"`
	MultiArg  *bool   `json:"multi_arg,omitempty" env:"HANDOSC_MULTI_ARG"`
	Dumb      *bool   `json:"dumb,omitempty" env:"HANDOSC_DUMB"`
	Unbundled *bool   `json:"unbundled,omitempty" env:"HANDOSC_UNBUNDLED"`
	Verbose   *bool   `json:"verbose,omitempty" env:"HANDOSC_VERBOSE"`

	// Tracker params
	MissThreshold   *int `json:"miss_threshold,omitempty" env:"HANDOSC_MISS_THRESHOLD"`
	PurgeMultiplier *int `json:"purge_multiplier,omitempty" env:"HANDOSC_PURGE_MULTIPLIER"`

	// Remapping ranges in device millimetres. An axis is remapped only when
	// both bounds are set.
	XMin *float64 `json:"x_min,omitempty" env:"HANDOSC_X_MIN"`
	XMax *float64 `json:"x_max,omitempty" env:"HANDOSC_X_MAX"`
	YMin *float64 `json:"y_min,omitempty" env:"HANDOSC_Y_MIN"`
	YMax *float64 `json:"y_max,omitempty" env:"HANDOSC_Y_MAX"`
	ZMin *float64 `json:"z_min,omitempty" env:"HANDOSC_Z_MIN"`
	ZMax *float64 `json:"z_max,omitempty" env:"HANDOSC_Z_MAX"`

	StatsInterval *string `json:"stats_interval,omitempty" env:"HANDOSC_STATS_INTERVAL"` // duration string like "1s"

	// Frame source: "synthetic", "replay:<path>" or "udp:<addr>".
	Source *string `json:"source,omitempty" env:"HANDOSC_SOURCE"`
	Record *string `json:"record,omitempty" env:"HANDOSC_RECORD"`
}

// Bounds is an optional [min, max] pair for one axis.
type Bounds struct {
	Min, Max float64
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrBool(v bool) *bool       { return &v }
func ptrInt(v int) *int          { return &v }

// DefaultConfig returns a Config with every scalar field populated.
// Remapping ranges stay unset.
func DefaultConfig() *Config {
	return &Config{
		Host:            ptrString(DefaultHost),
		Port:            ptrInt(DefaultPort),
		MultiArg:        ptrBool(false),
		Dumb:            ptrBool(false),
		Unbundled:       ptrBool(false),
		Verbose:         ptrBool(false),
		MissThreshold:   ptrInt(DefaultMissThreshold),
		PurgeMultiplier: ptrInt(DefaultPurgeMultiplier),
		StatsInterval:   ptrString(DefaultStatsInterval.String()),
		Source:          ptrString(DefaultSource),
	}
}

// LoadConfig loads a Config from a JSON file. Omitted fields stay nil and
// fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 64 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from HANDOSC_* environment variables. Unset
// variables leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Host != nil {
		host := *c.Host
		if host == "" || strings.ContainsAny(host, " \t\n") {
			return fmt.Errorf("%w: host %q", ErrInvalidConfig, host)
		}
	}
	if c.Port != nil && (*c.Port < 1 || *c.Port > 65535) {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrInvalidConfig, *c.Port)
	}
	if c.MissThreshold != nil && *c.MissThreshold < 1 {
		return fmt.Errorf("%w: miss_threshold must be at least 1, got %d", ErrInvalidConfig, *c.MissThreshold)
	}
	if c.PurgeMultiplier != nil && *c.PurgeMultiplier < 1 {
		return fmt.Errorf("%w: purge_multiplier must be at least 1, got %d", ErrInvalidConfig, *c.PurgeMultiplier)
	}
	if c.StatsInterval != nil && *c.StatsInterval != "" {
		if _, err := time.ParseDuration(*c.StatsInterval); err != nil {
			return fmt.Errorf("%w: stats_interval %q: %v", ErrInvalidConfig, *c.StatsInterval, err)
		}
	}

	for _, axis := range []struct {
		name     string
		min, max *float64
	}{
		{"x", c.XMin, c.XMax},
		{"y", c.YMin, c.YMax},
		{"z", c.ZMin, c.ZMax},
	} {
		if err := validateBounds(axis.name, axis.min, axis.max); err != nil {
			return err
		}
	}
	return nil
}

func validateBounds(axis string, lo, hi *float64) error {
	if lo == nil && hi == nil {
		return nil
	}
	if lo == nil || hi == nil {
		return fmt.Errorf("%w: %s range needs both %s_min and %s_max", ErrInvalidConfig, axis, axis, axis)
	}
	if math.IsNaN(*lo) || math.IsNaN(*hi) || math.IsInf(*lo, 0) || math.IsInf(*hi, 0) {
		return fmt.Errorf("%w: %s range must be finite", ErrInvalidConfig, axis)
	}
	if *lo >= *hi {
		return fmt.Errorf("%w: %s_min (%g) must be less than %s_max (%g)", ErrInvalidConfig, axis, *lo, axis, *hi)
	}
	return nil
}

// GetHost returns the target host or the default.
func (c *Config) GetHost() string {
	if c.Host == nil || *c.Host == "" {
		return DefaultHost
	}
	return *c.Host
}

// GetPort returns the target port or the default.
func (c *Config) GetPort() int {
	if c.Port == nil {
		return DefaultPort
	}
	return *c.Port
}

// GetMultiArg reports whether vectors are sent as one three-argument
// message.
func (c *Config) GetMultiArg() bool {
	return c.MultiArg != nil && *c.MultiArg
}

// GetDumb reports whether stabilization is disabled.
func (c *Config) GetDumb() bool {
	return c.Dumb != nil && *c.Dumb
}

// GetUnbundled reports whether per-tick bundling is disabled.
func (c *Config) GetUnbundled() bool {
	return c.Unbundled != nil && *c.Unbundled
}

// GetVerbose reports whether debug logging is enabled.
func (c *Config) GetVerbose() bool {
	return c.Verbose != nil && *c.Verbose
}

// GetMissThreshold returns the miss_threshold value or the default.
func (c *Config) GetMissThreshold() int {
	if c.MissThreshold == nil {
		return DefaultMissThreshold
	}
	return *c.MissThreshold
}

// GetPurgeMultiplier returns the purge_multiplier value or the default.
func (c *Config) GetPurgeMultiplier() int {
	if c.PurgeMultiplier == nil {
		return DefaultPurgeMultiplier
	}
	return *c.PurgeMultiplier
}

// GetStatsInterval parses and returns the StatsInterval as a time.Duration.
func (c *Config) GetStatsInterval() time.Duration {
	if c.StatsInterval == nil || *c.StatsInterval == "" {
		return DefaultStatsInterval
	}
	d, err := time.ParseDuration(*c.StatsInterval)
	if err != nil {
		return DefaultStatsInterval
	}
	return d
}

// GetSource returns the frame source descriptor.
func (c *Config) GetSource() string {
	if c.Source == nil || *c.Source == "" {
		return DefaultSource
	}
	return *c.Source
}

// GetRecord returns the recording path, or "" when recording is off.
func (c *Config) GetRecord() string {
	if c.Record == nil {
		return ""
	}
	return *c.Record
}

// GetRanges returns the x, y and z remapping bounds; nil means pass-through.
func (c *Config) GetRanges() [3]*Bounds {
	pair := func(lo, hi *float64) *Bounds {
		if lo == nil || hi == nil {
			return nil
		}
		return &Bounds{Min: *lo, Max: *hi}
	}
	return [3]*Bounds{pair(c.XMin, c.XMax), pair(c.YMin, c.YMax), pair(c.ZMin, c.ZMax)}
}
