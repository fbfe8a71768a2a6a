package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Directory discovery strategies used when removing a stale subtree.
const (
	WalkLegacy = "legacy"
	WalkFull   = "full"
)

type Config struct {
	Port           int           `yaml:"port"`
	KnownHosts     string        `yaml:"known_hosts"`
	// ConnectTimeout bounds the dial and ssh handshake. Zero disables it.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	Root          string   `yaml:"root"`
	ListPath      string   `yaml:"list_path"`
	LogFile       string   `yaml:"log_file"`
	LogMaxSizeMB  int      `yaml:"log_max_size_mb"`
	LogMaxBackups int      `yaml:"log_max_backups"`
	MaxAgeDays    int      `yaml:"max_age_days"`
	Exclude       []string `yaml:"exclude"`
	Walk          string   `yaml:"walk"`
	Workers       int      `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:           22,
		ConnectTimeout: 30 * time.Second,
		Root:           "/",
		ListPath:       "/root/sftp_cleanup_dirs",
		LogFile:        "/root/sftp_cleanup.log",
		LogMaxSizeMB:   100,
		MaxAgeDays:     30,
		Exclude:        []string{},
		Walk:           WalkLegacy,
		Workers:        1,
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so a partial file only overrides what it names
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}

	return cfg, nil
}

// Validate checks the values that the cleanup run depends on. Host, user and
// key always come from the command line and are checked there.
func (c *Config) Validate() error {
	if c.MaxAgeDays <= 0 {
		return fmt.Errorf("max_age_days must be positive, got %d", c.MaxAgeDays)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect_timeout must not be negative, got %s", c.ConnectTimeout)
	}
	if c.Walk != WalkLegacy && c.Walk != WalkFull {
		return fmt.Errorf("walk must be %q or %q, got %q", WalkLegacy, WalkFull, c.Walk)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ListPath == "" {
		return fmt.Errorf("list_path must not be empty")
	}
	if c.LogFile == "" {
		return fmt.Errorf("log_file must not be empty")
	}
	if c.Root == "" {
		return fmt.Errorf("root must not be empty")
	}
	return nil
}

// MaxAge is the retention window as a duration.
func (c *Config) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour
}
