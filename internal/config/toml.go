// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Export   ExportConfig   `toml:"export"`
	Database DatabaseConfig `toml:"database"`
	Publish  PublishConfig  `toml:"publish"`
	Log      LogConfig      `toml:"log"`
}

// ExportConfig maps CSV export settings.
type ExportConfig struct {
	Force *bool `toml:"force"`
}

// DatabaseConfig maps persistence settings.
type DatabaseConfig struct {
	URL *string `toml:"url"`
}

// PublishConfig maps snapshot announcement settings.
type PublishConfig struct {
	RedisURL *string `toml:"redis-url"`
	Stream   *string `toml:"stream"`
}

// LogConfig maps diagnostics settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
