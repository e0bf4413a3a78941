package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults for values absent from the config file. The two poll cadences
// come from the backend's expectations: partner list every 5s, active
// thread every 3s.
const (
	DefaultBaseURL             = "http://localhost:8080/api"
	DefaultPartnerPollInterval = 5 * time.Second
	DefaultThreadPollInterval  = 3 * time.Second
)

// Config represents the global ~/.solechat/config.toml.
type Config struct {
	DefaultProfile     string `toml:"default_profile"`
	BaseURL            string `toml:"base_url"`
	PartnerPollSeconds int    `toml:"partner_poll_seconds"`
	ThreadPollSeconds  int    `toml:"thread_poll_seconds"`
}

// Load reads config from the given path. Returns an error if the file is
// missing; callers treat that as "use defaults".
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// EffectiveBaseURL returns the configured API base URL or the default.
func (c *Config) EffectiveBaseURL() string {
	if c != nil && c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

// PartnerPollInterval returns the partner-list refresh cadence.
func (c *Config) PartnerPollInterval() time.Duration {
	if c != nil && c.PartnerPollSeconds > 0 {
		return time.Duration(c.PartnerPollSeconds) * time.Second
	}
	return DefaultPartnerPollInterval
}

// ThreadPollInterval returns the active-thread refresh cadence.
func (c *Config) ThreadPollInterval() time.Duration {
	if c != nil && c.ThreadPollSeconds > 0 {
		return time.Duration(c.ThreadPollSeconds) * time.Second
	}
	return DefaultThreadPollInterval
}
