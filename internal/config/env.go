package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds settings read from the environment. Empty means unset.
type EnvConfig struct {
	DatabaseURL string `env:"NBTSCORE_DB_URL"`
	RedisURL    string `env:"NBTSCORE_REDIS_URL"`
	Stream      string `env:"NBTSCORE_STREAM"`
	LogLevel    string `env:"NBTSCORE_LOG_LEVEL"`
}

// LoadEnv reads EnvConfig from the process environment.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadEnvFrom reads EnvConfig from vars instead of the process environment.
func LoadEnvFrom(vars map[string]string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Overlay returns file with every set environment value taking its place.
func (e EnvConfig) Overlay(file FileConfig) FileConfig {
	out := file
	overlayString(&out.Database.URL, e.DatabaseURL)
	overlayString(&out.Publish.RedisURL, e.RedisURL)
	overlayString(&out.Publish.Stream, e.Stream)
	overlayString(&out.Log.Level, e.LogLevel)
	return out
}

func overlayString(target **string, value string) {
	if value == "" {
		return
	}
	v := value
	*target = &v
}
