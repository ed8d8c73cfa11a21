package config

import "toolforge/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level,omitempty"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format,omitempty"` // text, json
	File   string `yaml:"file" json:"file,omitempty"`     // empty = stderr
}

// Options converts the config into logger build options.
func (c LoggingConfig) Options() logging.Options {
	return logging.Options{
		Level:  c.Level,
		Format: c.Format,
		File:   c.File,
	}
}
