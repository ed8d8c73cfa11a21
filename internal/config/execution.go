package config

import (
	"sort"
	"time"
)

// ShellConfig configures shell sessions.
type ShellConfig struct {
	// How long each wait for the shell to exit may block
	PollInterval string `yaml:"poll_interval" json:"poll_interval,omitempty"`

	// Working directory for the shell, empty = current directory
	WorkingDirectory string `yaml:"working_directory" json:"working_directory,omitempty"`

	// Extra environment variables for every session
	Env map[string]string `yaml:"env" json:"env,omitempty"`
}

// GetPollInterval returns the poll interval as a duration.
func (c ShellConfig) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Environ returns Env as sorted KEY=VALUE pairs.
func (c ShellConfig) Environ() []string {
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+c.Env[k])
	}
	return env
}
