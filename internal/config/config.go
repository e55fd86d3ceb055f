// Package config provides YAML-based configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration, loaded from tmx.yaml.
type Config struct {
	// BaseDir is the shared directory holding the agents/ and
	// messages/ record collections.
	BaseDir          string `yaml:"base_dir"`
	HeartbeatSeconds int    `yaml:"heartbeat_seconds"`
	SettleDelayMS    int    `yaml:"settle_delay_ms"`
	ClearAfterHours  int    `yaml:"clear_after_hours"`
	HistoryLimit     int    `yaml:"history_limit"`
	DashboardPort    int    `yaml:"dashboard_port"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.BaseDir == "" {
		c.BaseDir = filepath.Join(os.TempDir(), "tmx-agents")
	}
	if c.HeartbeatSeconds == 0 {
		c.HeartbeatSeconds = 30
	}
	if c.SettleDelayMS == 0 {
		c.SettleDelayMS = 500
	}
	if c.ClearAfterHours == 0 {
		c.ClearAfterHours = 24
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 50
	}
	if c.DashboardPort == 0 {
		c.DashboardPort = 8080
	}
}

// validate checks that all fields are consistent.
func (c *Config) validate() error {
	var errs []string
	if c.HeartbeatSeconds < 0 {
		errs = append(errs, "heartbeat_seconds must be positive")
	}
	if c.SettleDelayMS < 0 {
		errs = append(errs, "settle_delay_ms must be positive")
	}
	if c.ClearAfterHours < 0 {
		errs = append(errs, "clear_after_hours must be positive")
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, "history_limit must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
