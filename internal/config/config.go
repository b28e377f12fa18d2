// Package config handles the monitor's persistent configuration: a
// JSON app config under ~/.sitmon and the YAML detector definition
// tables the analyzers run against.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration
type Config struct {
	// Feeds to poll each cycle
	Feeds []FeedConfig `json:"feeds"`

	// Refresh interval between analysis cycles, in minutes
	RefreshMinutes int `json:"refresh_minutes"`

	// Path to the detector definition file; empty uses built-ins
	DetectorsFile string `json:"detectors_file"`

	// SQLite snapshot database path; empty uses ~/.sitmon/sitmon.db
	DatabasePath string `json:"database_path"`
}

// FeedConfig is one RSS/Atom feed to poll
type FeedConfig struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Feeds: []FeedConfig{
			{Name: "Reuters", URL: "https://feeds.reuters.com/reuters/topNews"},
			{Name: "BBC News", URL: "https://feeds.bbci.co.uk/news/rss.xml"},
			{Name: "AP News", URL: "https://rsshub.app/apnews/topics/apf-topnews"},
		},
		RefreshMinutes: 5,
	}
}

// configPath returns the path to the config file
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".sitmon", "config.json"), nil
}

// Load reads the config from disk, or returns defaults if missing
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return DefaultConfig(), err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), err
	}
	if cfg.RefreshMinutes <= 0 {
		cfg.RefreshMinutes = 5
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
