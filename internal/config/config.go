// Package config loads toolforge configuration from YAML.
//
// Every field has a default, a missing file yields the defaults, and a few
// FORGE_* environment variables override the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"toolforge/internal/logging"
	"toolforge/internal/paths"

	"gopkg.in/yaml.v3"
)

// Config holds all toolforge configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Shell   ShellConfig   `yaml:"shell"`
	Finder  FinderConfig  `yaml:"finder"`
	Cache   CacheConfig   `yaml:"cache"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Shell: ShellConfig{
			PollInterval: "500ms",
			Env:          map[string]string{},
		},
		Finder: FinderConfig{
			CacheFile:     paths.FinderCache(),
			RecycleMarker: "Recycle.Bin",
		},
		Cache: CacheConfig{
			SettingsFile: paths.SettingsCache(),
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults if config file doesn't exist
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("FORGE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if path := os.Getenv("FORGE_FINDER_CACHE"); path != "" {
		c.Finder.CacheFile = path
	}
	if path := os.Getenv("FORGE_SETTINGS_CACHE"); path != "" {
		c.Cache.SettingsFile = path
	}
	if interval := os.Getenv("FORGE_POLL_INTERVAL"); interval != "" {
		c.Shell.PollInterval = interval
	}
}

// GetPollInterval returns the shell poll interval as a duration.
func (c *Config) GetPollInterval() time.Duration {
	return c.Shell.GetPollInterval()
}

// ValidFormats lists the supported log formats.
var ValidFormats = []string{"text", "json"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	validFormat := c.Logging.Format == ""
	for _, f := range ValidFormats {
		if c.Logging.Format == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, ValidFormats)
	}

	if c.Shell.PollInterval != "" {
		if d, err := time.ParseDuration(c.Shell.PollInterval); err != nil || d <= 0 {
			return fmt.Errorf("invalid shell poll interval: %q", c.Shell.PollInterval)
		}
	}

	return nil
}
