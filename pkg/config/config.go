package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for rify-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (the database password) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Dashboard behavior
	Dashboards DashboardConfig `yaml:"dashboards"`

	// Variable value history retention
	Retention RetentionConfig `yaml:"retention"`

	// External monitoring tool endpoints (proxy layer)
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"rify"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"rify_ops"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// DashboardConfig holds dashboard service behavior settings.
type DashboardConfig struct {
	// OnConflict decides what a create with an existing title does:
	// "upsert" updates the existing dashboard, "fail" rejects with a
	// conflict error.
	OnConflict string `yaml:"on_conflict" env:"DASHBOARD_ON_CONFLICT" env-default:"upsert"`
}

// RetentionConfig holds variable value history retention settings.
type RetentionConfig struct {
	// VariableValueDays is the default age in days beyond which value
	// history is pruned when the maintenance job is triggered without an
	// explicit window.
	VariableValueDays int `yaml:"variable_value_days" env:"RETENTION_VARIABLE_VALUE_DAYS" env-default:"30"`
}

// MonitoringConfig holds endpoints of the external monitoring tools the
// proxy layer forwards opaque queries to.
type MonitoringConfig struct {
	PrometheusURL string `yaml:"prometheus_url" env:"PROMETHEUS_URL" env-default:"http://localhost:9090"`
	TimeoutSecs   int    `yaml:"timeout_secs" env:"MONITORING_TIMEOUT_SECS" env-default:"30"`
}

// Load reads configuration from the given YAML file with environment
// variable overrides. The version parameter is injected at build time and
// set on the returned Config.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Dashboards.OnConflict {
	case "upsert", "fail":
	default:
		return fmt.Errorf("invalid dashboards.on_conflict %q (want \"upsert\" or \"fail\")", c.Dashboards.OnConflict)
	}

	if c.Retention.VariableValueDays <= 0 {
		return fmt.Errorf("retention.variable_value_days must be positive")
	}

	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
