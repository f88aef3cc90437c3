// Package config loads engine tuning knobs for relstore's cmd/ programs
// and test setup. Core packages never import it: pagedfile.Open,
// recordstore.Create, btreeindex.Open and catalog.CreateCatalog all take
// their parameters explicitly, so a config value only ever reaches them
// by being passed in at a call site, not read ambiently.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"relstore/pkg/page"
)

// Config holds all configuration relevant to running relstore's tools
// against a data directory.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

// StorageConfig holds storage engine tuning knobs.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
	// PageSize is informational: relstore's page size is a build-time
	// constant (pkg/page.Size), not something pagedfile.Open takes as a
	// parameter. Load rejects a value that disagrees with page.Size so a
	// stale config file fails loudly instead of silently describing a
	// file layout the running binary doesn't produce.
	PageSize int `mapstructure:"page_size"`
	// DirectoryIntervalK is the number of data pages one free-space
	// directory page describes (recordstore.DirectoryCapacity), echoed
	// here for operators inspecting a data directory's layout.
	DirectoryIntervalK int `mapstructure:"directory_interval_k"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:            "./data",
			PageSize:           page.Size,
			DirectoryIntervalK: recordstoreDirectoryCapacity(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// recordstoreDirectoryCapacity derives the directory capacity here
// without importing recordstore, which keeps config a leaf package. It
// reproduces recordstore.DirectoryCapacity's arithmetic exactly.
func recordstoreDirectoryCapacity() int {
	const dirEntrySize = 6
	const dirNextPtrSize = 4
	const headerReserved = 12
	return (page.Size - headerReserved - dirNextPtrSize) / dirEntrySize
}

// Load reads configuration from an optional YAML file and from
// RELSTORE_-prefixed environment variables, layered over defaults set
// in code. An empty configPath skips the file and uses defaults plus
// environment overrides only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.page_size", cfg.Storage.PageSize)
	v.SetDefault("storage.directory_interval_k", cfg.Storage.DirectoryIntervalK)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	v.SetEnvPrefix("RELSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are sensible.
func (c *Config) Validate() error {
	if c.Storage.PageSize != page.Size {
		return fmt.Errorf("storage.page_size %d does not match the compiled-in page size %d", c.Storage.PageSize, page.Size)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir must not be empty")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}
