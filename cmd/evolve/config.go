package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/evolvedb/evolve/pkg/evolve"
)

// Config represents the evolve.yaml configuration file.
type Config struct {
	DatabaseURL   string `yaml:"database_url"`
	MigrationsDir string `yaml:"migrations_dir"`
	SnapshotPath  string `yaml:"snapshot_path"`
	Dialect       string `yaml:"dialect"`
}

// loadConfig loads configuration from file, env vars, and CLI flags.
// Precedence: CLI flags > env vars > config file > defaults
func loadConfig() (*Config, error) {
	cfg := &Config{
		MigrationsDir: "./migrations",
	}

	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		// ${VAR} interpolation in database_url
		cfg.DatabaseURL = os.Expand(cfg.DatabaseURL, os.Getenv)
	}

	if envURL := os.Getenv("DATABASE_URL"); envURL != "" && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = envURL
	}
	if envDir := os.Getenv("EVOLVE_MIGRATIONS_DIR"); envDir != "" && cfg.MigrationsDir == "./migrations" {
		cfg.MigrationsDir = envDir
	}
	if envDialect := os.Getenv("EVOLVE_DIALECT"); envDialect != "" && cfg.Dialect == "" {
		cfg.Dialect = envDialect
	}

	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}

	return cfg, nil
}

// newClient creates an evolve client from the resolved config.
func newClient() (*evolve.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required (flag --database-url, env DATABASE_URL, or %s)", configFile)
	}

	opts := []evolve.Option{
		evolve.WithDatabaseURL(cfg.DatabaseURL),
		evolve.WithMigrationsDir(cfg.MigrationsDir),
	}
	if cfg.SnapshotPath != "" {
		opts = append(opts, evolve.WithSnapshotPath(cfg.SnapshotPath))
	}
	if cfg.Dialect != "" {
		opts = append(opts, evolve.WithDialect(cfg.Dialect))
	}

	return evolve.New(opts...)
}
