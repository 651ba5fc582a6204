package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFileName = "casefile.yaml"
	DefaultUsername = "agent"
	DefaultLevel    = "info"
)

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Story    string         `yaml:"story" env:"CASEFILE_STORY"`
	Username string         `yaml:"username" env:"CASEFILE_USERNAME"`
	Database DatabaseConfig `yaml:"database"`
	Pacing   PacingConfig   `yaml:"pacing"`
	Log      LogConfig      `yaml:"log"`

	dir string
}

type DatabaseConfig struct {
	// DSN selects the save backend: sqlite://path or postgres://...
	// Saving is disabled when it is empty.
	DSN string `yaml:"dsn" env:"CASEFILE_DATABASE_DSN"`
}

type PacingConfig struct {
	// Scale multiplies every character delay. Nil means 1; 0 means instant.
	Scale *float64 `yaml:"scale" env:"CASEFILE_PACING_SCALE"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"CASEFILE_LOG_LEVEL"`
	Development bool   `yaml:"development"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := ParseEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	cfg.dir = filepath.Dir(path)
	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	if strings.TrimSpace(cfg.Username) == "" {
		cfg.Username = DefaultUsername
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = DefaultLevel
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Story) == "" {
		return fmt.Errorf("story path is required")
	}
	if cfg.Pacing.Scale != nil && *cfg.Pacing.Scale < 0 {
		return fmt.Errorf("pacing scale must not be negative")
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		if !strings.HasPrefix(dsn, "sqlite://") && !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			return fmt.Errorf("unsupported database dsn: %s", dsn)
		}
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return err
	}
	return nil
}

// StoryPath resolves the story file relative to the config file.
func (c *ProjectConfig) StoryPath() string {
	if filepath.IsAbs(c.Story) || c.dir == "" {
		return c.Story
	}
	return filepath.Join(c.dir, c.Story)
}

// PacingScale returns the configured delay multiplier.
func (c *ProjectConfig) PacingScale() float64 {
	if c.Pacing.Scale == nil {
		return 1
	}
	return *c.Pacing.Scale
}
