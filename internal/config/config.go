// Package config loads runtime settings for the snow-line tools.
//
// Values come from, in increasing priority: built-in defaults, an optional
// YAML file, and environment variables prefixed with SNOWLINE. Dots in keys
// map to underscores, so "histogram.workers" is read from
// SNOWLINE_HISTOGRAM_WORKERS.
package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "SNOWLINE"

// Config aggregates configuration for the application.
type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Histogram HistogramConfig `mapstructure:"histogram"`
	Snowline  SnowlineConfig  `mapstructure:"snowline"`
}

// HistogramConfig controls how scenes are split and accumulated.
type HistogramConfig struct {
	// Workers is the number of partial histograms filled concurrently.
	Workers int `mapstructure:"workers"`
	// TileWidth and TileHeight bound the region handed to one Ingest call.
	// Zero width means full raster rows.
	TileWidth  int `mapstructure:"tile_width"`
	TileHeight int `mapstructure:"tile_height"`
}

// SnowlineConfig holds the elevation plausibility range applied while
// scanning altitude bins.
type SnowlineConfig struct {
	MinPlausible float64 `mapstructure:"min_plausible"`
	MaxPlausible float64 `mapstructure:"max_plausible"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Histogram: HistogramConfig{
			Workers:    runtime.GOMAXPROCS(0),
			TileWidth:  0,
			TileHeight: 256,
		},
		Snowline: SnowlineConfig{
			MinPlausible: -413,
			MaxPlausible: 8850,
		},
	}
}

// Load reads configuration. When path is empty an optional "snowline.yaml"
// in the working directory is used if present.
func Load(path string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("histogram.workers", def.Histogram.Workers)
	v.SetDefault("histogram.tile_width", def.Histogram.TileWidth)
	v.SetDefault("histogram.tile_height", def.Histogram.TileHeight)
	v.SetDefault("snowline.min_plausible", def.Snowline.MinPlausible)
	v.SetDefault("snowline.max_plausible", def.Snowline.MaxPlausible)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("snowline")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		_ = v.ReadInConfig()
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c.Histogram.Workers < 0 {
		return fmt.Errorf("histogram.workers must be >= 0, got %d", c.Histogram.Workers)
	}
	if c.Histogram.TileWidth < 0 || c.Histogram.TileHeight < 0 {
		return fmt.Errorf("histogram tile size must be >= 0, got %dx%d", c.Histogram.TileWidth, c.Histogram.TileHeight)
	}
	if c.Snowline.MinPlausible >= c.Snowline.MaxPlausible {
		return fmt.Errorf("snowline.min_plausible (%g) must be below snowline.max_plausible (%g)",
			c.Snowline.MinPlausible, c.Snowline.MaxPlausible)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel converts a level name such as "debug" or "WARN" to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
