// Package config loads pipeline tuning from an optional YAML file, with
// environment variables taking precedence over file values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/notescribe-backend/internal/platform/envutil"
)

type Config struct {
	Port string `yaml:"port"`

	Worker struct {
		Concurrency         int `yaml:"concurrency"`
		MaxAttempts         int `yaml:"max_attempts"`
		RetryDelaySeconds   int `yaml:"retry_delay_seconds"`
		StaleRunningMinutes int `yaml:"stale_running_minutes"`
	} `yaml:"worker"`

	Generation struct {
		MaxDepth    int `yaml:"max_depth"`
		Concurrency int `yaml:"concurrency"`
	} `yaml:"generation"`
}

func defaults() Config {
	var cfg Config
	cfg.Port = "8080"
	cfg.Worker.Concurrency = 4
	cfg.Worker.MaxAttempts = 3
	cfg.Worker.RetryDelaySeconds = 30
	cfg.Worker.StaleRunningMinutes = 30
	cfg.Generation.MaxDepth = 2
	cfg.Generation.Concurrency = 8
	return cfg
}

// Load reads CONFIG_PATH (default ./config.yaml) if it exists, then lets
// environment variables override individual fields.
func Load() (Config, error) {
	cfg := defaults()

	path := envutil.Str("CONFIG_PATH", "./config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// optional file
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = envutil.Str("PORT", cfg.Port)
	cfg.Worker.Concurrency = envutil.Int("WORKER_CONCURRENCY", cfg.Worker.Concurrency)
	cfg.Worker.MaxAttempts = envutil.Int("WORKER_MAX_ATTEMPTS", cfg.Worker.MaxAttempts)
	cfg.Worker.RetryDelaySeconds = envutil.Int("WORKER_RETRY_DELAY_SECONDS", cfg.Worker.RetryDelaySeconds)
	cfg.Worker.StaleRunningMinutes = envutil.Int("WORKER_STALE_RUNNING_MINUTES", cfg.Worker.StaleRunningMinutes)
	cfg.Generation.MaxDepth = envutil.Int("GENERATION_MAX_DEPTH", cfg.Generation.MaxDepth)
	cfg.Generation.Concurrency = envutil.Int("GENERATION_CONCURRENCY", cfg.Generation.Concurrency)

	if cfg.Worker.Concurrency < 1 {
		return cfg, fmt.Errorf("worker.concurrency must be at least 1")
	}
	if cfg.Generation.MaxDepth < 0 {
		return cfg, fmt.Errorf("generation.max_depth must not be negative")
	}
	return cfg, nil
}
