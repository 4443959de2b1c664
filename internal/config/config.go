// Package config loads the persistent mrx configuration from
// ~/.marketruns/config.yaml, falling back to defaults when the file is
// absent or unreadable.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the persistent tool configuration.
type Config struct {
	// Experiment names the built Experiment and the sqlite export rows.
	Experiment string `yaml:"experiment"`

	// WideCSV and ChatCSV are default input paths, overridable per command.
	WideCSV string `yaml:"wide_csv"`
	ChatCSV string `yaml:"chat_csv"`

	// SessionCode keys the session when the wide extract carries no
	// session.code column.
	SessionCode string `yaml:"session_code"`

	// ChannelsPerRound is the number of chat rooms per group per round.
	ChannelsPerRound int `yaml:"channels_per_round"`

	// Export settings.
	DBPath   string `yaml:"db_path"`
	NAString string `yaml:"na_string"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Experiment:       "marketruns",
		SessionCode:      "session",
		ChannelsPerRound: 4,
		DBPath:           filepath.Join(DataDir(), "experiment.db"),
		NAString:         "NA",
	}
}

// DataDir returns the tool's data directory (~/.marketruns).
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".marketruns")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// Load reads the config file, or returns defaults if it does not exist.
func Load() (*Config, error) {
	data, err := os.ReadFile(Path())
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", Path(), err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", Path(), err)
	}
	if cfg.ChannelsPerRound <= 0 {
		cfg.ChannelsPerRound = 4
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(DataDir(), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(), data, 0644)
}
