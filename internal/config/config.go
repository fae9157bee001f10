package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
)

type Config struct {
	DBPath           string        `yaml:"db_path"`
	Storage          string        `yaml:"storage"`
	FilePath         string        `yaml:"file_path,omitempty"`
	WebEnabled       bool          `yaml:"web_enabled"`
	WebPort          int           `yaml:"web_port"`
	ReminderInterval time.Duration `yaml:"reminder_interval"`
	DueSoonHorizon   time.Duration `yaml:"due_soon_horizon"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
	LogPath          string        `yaml:"log_path,omitempty"`
}

func Default() Config {
	return Config{
		Storage:          StorageSQLite,
		WebPort:          8080,
		ReminderInterval: time.Minute,
		DueSoonHorizon:   24 * time.Hour,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazytodo", "config.yaml"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overrides cfg from LAZYTODO_* environment variables.
func ApplyEnv(cfg *Config) error {
	if value := strings.TrimSpace(os.Getenv("LAZYTODO_DB")); value != "" {
		cfg.DBPath = value
	}
	if value := strings.TrimSpace(os.Getenv("LAZYTODO_STORAGE")); value != "" {
		cfg.Storage = value
	}
	if value := strings.TrimSpace(os.Getenv("LAZYTODO_REMINDER_INTERVAL")); value != "" {
		interval, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("LAZYTODO_REMINDER_INTERVAL: %w", err)
		}
		cfg.ReminderInterval = interval
	}
	return nil
}

// Resolve fills paths that default relative to the config file location.
func (c *Config) Resolve(configPath string) {
	dir := filepath.Dir(configPath)
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, "lazytodo.db")
	}
	if c.Storage == StorageFile && c.FilePath == "" {
		c.FilePath = filepath.Join(dir, "tasks.json")
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(dir, "lazytodo.log")
	}
	if c.WebPort == 0 {
		c.WebPort = 8080
	}
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageSQLite, StorageFile:
	default:
		return fmt.Errorf("unknown storage %q (want %s or %s)", c.Storage, StorageSQLite, StorageFile)
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("reminder_interval must be positive")
	}
	if c.DueSoonHorizon <= 0 {
		return fmt.Errorf("due_soon_horizon must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	return nil
}
