package app

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerURL         string `yaml:"server_url"`
	PollIntervalMS    int    `yaml:"poll_interval_ms"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	DefaultRepoPath   string `yaml:"default_repo_path"`
	LogFile           string `yaml:"log_file"`
}

func DefaultConfig() Config {
	return Config{
		ServerURL:         DefaultServerURL,
		PollIntervalMS:    1500,
		RequestTimeoutSec: 30,
	}
}

// LoadConfig reads the YAML config at path. A missing file is not an error;
// defaults are returned, and zero or missing fields are backfilled.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = 1500
	}
	if cfg.RequestTimeoutSec <= 0 {
		cfg.RequestTimeoutSec = 30
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "codenav", "config.yml")
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}
