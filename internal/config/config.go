// Package config handles configuration loading and validation for simpleql
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Planner PlannerConfig `mapstructure:"planner"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Render  RenderConfig  `mapstructure:"render"`
	Log     LogConfig     `mapstructure:"log"`
}

type PlannerConfig struct {
	ViewCacheSize int `mapstructure:"view_cache_size"` // parsed view definitions kept around
	MaxViewDepth  int `mapstructure:"max_view_depth"`  // nesting limit of views, catches cycles
}

type CatalogConfig struct {
	RowsPerBlock int    `mapstructure:"rows_per_block"`
	ViewDir      string `mapstructure:"view_dir"` // empty keeps view definitions in memory
}

type RenderConfig struct {
	Color  bool `mapstructure:"color"`
	Border bool `mapstructure:"border"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func Default() *Config {
	return &Config{
		Planner: PlannerConfig{
			ViewCacheSize: 128,
			MaxViewDepth:  16,
		},
		Catalog: CatalogConfig{
			RowsPerBlock: 32,
			ViewDir:      "",
		},
		Render: RenderConfig{
			Color:  true,
			Border: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads the configuration from defaults, the optional yaml file at
// configPath and SIMPLEQL_* environment variables, in increasing priority
func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := Default()
	v.SetDefault("planner.view_cache_size", cfg.Planner.ViewCacheSize)
	v.SetDefault("planner.max_view_depth", cfg.Planner.MaxViewDepth)
	v.SetDefault("catalog.rows_per_block", cfg.Catalog.RowsPerBlock)
	v.SetDefault("catalog.view_dir", cfg.Catalog.ViewDir)
	v.SetDefault("render.color", cfg.Render.Color)
	v.SetDefault("render.border", cfg.Render.Border)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)

	v.SetEnvPrefix("SIMPLEQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Planner.ViewCacheSize < 1 {
		return fmt.Errorf("planner.view_cache_size must be positive")
	}
	if c.Planner.MaxViewDepth < 1 {
		return fmt.Errorf("planner.max_view_depth must be positive")
	}
	if c.Catalog.RowsPerBlock < 1 {
		return fmt.Errorf("catalog.rows_per_block must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
		break
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}
